// Package adoption moves rules and projects between their home forum and
// forums that adopt them. A privileged proposer publishes the adoption
// immediately; a plain member only opens a proposal that a forum admin must
// accept before the asset is linked.
package adoption

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/clubwize/backend/src/api/forum"
	"github.com/clubwize/backend/src/api/types"
)

type Kind string

const (
	KindRules   Kind = "rules"
	KindProject Kind = "project"
)

const (
	StatusProposed  = "proposed"
	StatusPublished = "published"
)

const (
	ActionRemove  = "removeadoption"
	ActionReAdopt = "re-adopt"
)

var (
	ErrAssetNotFound    = errors.New("asset not found")
	ErrForumNotFound    = errors.New("forum not found")
	ErrNotMember        = errors.New("user is not a member of the target forum")
	ErrNotPrivileged    = errors.New("user role cannot decide proposals in this forum")
	ErrDuplicate        = errors.New("already adopted by this forum")
	ErrAdoptionNotFound = errors.New("adoption not found")
	ErrNotProposed      = errors.New("adoption is not in proposed state")
	ErrOriginRecord     = errors.New("the origin record cannot be removed from adoption")
	ErrUnknownAction    = errors.New("unknown adoption action")
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// Asset names a rule or project by kind and id.
type Asset struct {
	Kind Kind
	ID   uint64
}

func (s *Service) assetExists(a Asset) (bool, error) {
	var err error
	switch a.Kind {
	case KindRules:
		err = s.db.First(&types.RulesRegulations{}, "id = ?", a.ID).Error
	case KindProject:
		err = s.db.First(&types.Project{}, "id = ?", a.ID).Error
	default:
		return false, ErrAssetNotFound
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func assetWhere(q *gorm.DB, a Asset) *gorm.DB {
	if a.Kind == KindRules {
		return q.Where("rule_id = ?", a.ID)
	}
	return q.Where("project_id = ?", a.ID)
}

func forumWhere(q *gorm.DB, f forum.Forum) *gorm.DB {
	switch f.Type {
	case forum.Club:
		return q.Where("club_id = ?", f.ID)
	case forum.Node:
		return q.Where("node_id = ?", f.ID)
	default:
		return q.Where("chapter_id = ?", f.ID)
	}
}

func newRecord(a Asset, f forum.Forum) types.Adoption {
	rec := types.Adoption{AssetKind: string(a.Kind)}
	id := a.ID
	if a.Kind == KindRules {
		rec.RuleID = &id
	} else {
		rec.ProjectID = &id
	}
	rec.ClubID, rec.NodeID, rec.ChapterID = f.Columns()
	return rec
}

// RecordOrigin writes the ownership adoption row for a freshly published
// asset, inside the caller's transaction.
func RecordOrigin(tx *gorm.DB, a Asset, f forum.Forum, userID uint64) error {
	rec := newRecord(a, f)
	rec.ProposedBy = userID
	rec.Status = StatusPublished
	rec.IsOrigin = true
	return tx.Create(&rec).Error
}

// Propose adopts the asset into the target forum. Privileged proposers
// publish directly; plain members leave a proposal carrying their message.
func (s *Service) Propose(userID uint64, a Asset, target forum.Forum, message string) (*types.Adoption, error) {
	ok, err := s.assetExists(a)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAssetNotFound
	}

	ok, err = forum.Exists(s.db, target)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForumNotFound
	}

	role, isMember, err := forum.Membership(s.db, target, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotMember
	}

	// The polymorphic forum columns carry no unique index; the duplicate
	// check has to happen here, before the insert.
	var count int64
	q := forumWhere(assetWhere(s.db.Model(&types.Adoption{}), a), target)
	if err := q.Where("removed = ?", false).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicate
	}

	rec := newRecord(a, target)
	rec.ProposedBy = userID
	if role.Privileged() {
		rec.Status = StatusPublished
		rec.AcceptedBy = &userID
	} else {
		rec.Status = StatusProposed
		rec.Message = message
	}

	if err := s.db.Create(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// Decide accepts or rejects a proposed adoption. The actor's role in the
// target forum is re-validated here; proposals may sit for a while and roles
// change.
func (s *Service) Decide(actorID, adoptionID uint64, accept bool) (*types.Adoption, error) {
	var rec types.Adoption
	if err := s.db.First(&rec, "id = ?", adoptionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdoptionNotFound
		}
		return nil, err
	}
	if rec.Status != StatusProposed {
		return nil, ErrNotProposed
	}

	f, err := forum.New(rec.ClubID, rec.NodeID, rec.ChapterID)
	if err != nil {
		return nil, err
	}
	role, isMember, err := forum.Membership(s.db, f, actorID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotMember
	}
	if !role.Privileged() {
		return nil, ErrNotPrivileged
	}

	if !accept {
		if err := s.db.Delete(&types.Adoption{}, "id = ?", rec.ID).Error; err != nil {
			return nil, err
		}
		return nil, nil
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":      StatusPublished,
		"accepted_by": actorID,
		"updated_at":  now,
	}
	if err := s.db.Model(&types.Adoption{}).Where("id = ?", rec.ID).Updates(updates).Error; err != nil {
		return nil, err
	}

	rec.Status = StatusPublished
	rec.AcceptedBy = &actorID
	rec.UpdatedAt = now
	return &rec, nil
}

// Remove soft-disables an adoption or restores it. Whether an asset may be
// re-adopted while still adopted elsewhere is an open product question; no
// guard is applied here.
func (s *Service) Remove(adoptionID uint64, action string) (*types.Adoption, error) {
	var rec types.Adoption
	if err := s.db.First(&rec, "id = ?", adoptionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdoptionNotFound
		}
		return nil, err
	}

	switch action {
	case ActionRemove:
		if rec.IsOrigin {
			return nil, ErrOriginRecord
		}
		rec.Removed = true
	case ActionReAdopt:
		rec.Removed = false
	default:
		return nil, ErrUnknownAction
	}

	if err := s.db.Model(&types.Adoption{}).Where("id = ?", rec.ID).
		Update("removed", rec.Removed).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// AdoptedForums lists the forums an asset is currently published into,
// origin included.
func (s *Service) AdoptedForums(a Asset) ([]types.Adoption, error) {
	var recs []types.Adoption
	q := assetWhere(s.db.Model(&types.Adoption{}), a)
	err := q.Where("status = ? AND removed = ?", StatusPublished, false).
		Order("created_at asc").Find(&recs).Error
	return recs, err
}

// Proposals lists open proposals for a forum, oldest first.
func (s *Service) Proposals(f forum.Forum, kind Kind) ([]types.Adoption, error) {
	var recs []types.Adoption
	q := forumWhere(s.db.Model(&types.Adoption{}), f)
	err := q.Where("asset_kind = ? AND status = ? AND removed = ?", string(kind), StatusProposed, false).
		Order("created_at asc").Find(&recs).Error
	return recs, err
}
