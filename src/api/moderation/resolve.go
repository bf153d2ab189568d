// Package moderation resolves the polymorphic asset a report points at.
// A report stores only (assetType, assetId); nothing guarantees at write time
// that the id exists, or that the recorded type is right.
package moderation

import (
	"errors"

	"gorm.io/gorm"

	"github.com/clubwize/backend/src/api/types"
)

const (
	AssetRules    = "rules"
	AssetDebate   = "debate"
	AssetIssues   = "issues"
	AssetProjects = "projects"
	AssetStandard = "standard"
)

// KnownAssetType reports whether t is one of the reportable asset types.
func KnownAssetType(t string) bool {
	switch t {
	case AssetRules, AssetDebate, AssetIssues, AssetProjects, AssetStandard:
		return true
	}
	return false
}

type resolver func(db *gorm.DB, id uint64) (interface{}, error)

func lookup(out interface{}) resolver {
	return func(db *gorm.DB, id uint64) (interface{}, error) {
		err := db.First(out, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
}

func resolverFor(assetType string) resolver {
	switch assetType {
	case AssetRules:
		return lookup(&types.RulesRegulations{})
	case AssetDebate:
		return lookup(&types.Debate{})
	case AssetIssues:
		return lookup(&types.Issue{})
	case AssetProjects:
		return lookup(&types.Project{})
	case AssetStandard:
		return lookup(&types.StandardAsset{})
	}
	return nil
}

// probeOrder is the legacy fallback ordering. The first collection that
// returns a document wins; later candidates are not tried.
var probeOrder = []string{AssetStandard, AssetRules, AssetIssues, AssetDebate, AssetProjects}

// ResolveAsset substitutes the stored id with the document it names. The
// recorded tag is tried first; because tags have historically been wrong, a
// miss falls back to probing every collection in fixed priority order.
func ResolveAsset(db *gorm.DB, assetType string, id uint64) (interface{}, error) {
	if r := resolverFor(assetType); r != nil {
		doc, err := r(db, id)
		if err != nil {
			return nil, err
		}
		if doc != nil {
			return doc, nil
		}
	}

	for _, t := range probeOrder {
		if t == assetType {
			continue // already tried via the tag
		}
		doc, err := resolverFor(t)(db, id)
		if err != nil {
			return nil, err
		}
		if doc != nil {
			return doc, nil
		}
	}
	return nil, nil
}
