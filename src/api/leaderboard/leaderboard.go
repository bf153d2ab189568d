// Package leaderboard ranks contributions under a root project. Rankings are
// a read-only projection over the contributions table and are recomputed on
// every request.
package leaderboard

import (
	"sort"

	"gorm.io/gorm"

	"github.com/clubwize/backend/src/api/types"
)

type ParameterTotal struct {
	ParameterID uint64  `json:"parameterId"`
	Parameter   string  `json:"parameter"`
	Total       float64 `json:"totalValue"`
}

type MemberEntry struct {
	UserID       uint64           `json:"userId"`
	UserName     string           `json:"userName"`
	Parameters   []ParameterTotal `json:"parameters"`
	OverallTotal float64          `json:"overallTotal"`
}

type ForumEntry struct {
	ForumType    string           `json:"forumType"` // club or node
	ForumID      uint64           `json:"forumId"`
	Parameters   []ParameterTotal `json:"parameters"`
	OverallTotal float64          `json:"overallTotal"`
}

func parameterTitles(db *gorm.DB, ids []uint64) (map[uint64]string, error) {
	titles := make(map[uint64]string, len(ids))
	if len(ids) == 0 {
		return titles, nil
	}
	var params []types.ProjectParameter
	if err := db.Where("id IN ?", ids).Find(&params).Error; err != nil {
		return nil, err
	}
	for _, p := range params {
		titles[p.ID] = p.Title
	}
	return titles, nil
}

// MemberWise groups every contribution under the root project by
// (user, parameter), sums values, then regroups by user. Sorting is stable on
// total descending; equal totals keep query order.
func MemberWise(db *gorm.DB, rootProjectID uint64) ([]MemberEntry, error) {
	type row struct {
		UserID      uint64
		ParameterID uint64
		Total       float64
	}
	var rows []row
	err := db.Table("contributions").
		Select("user_id, parameter_id, sum(value) as total").
		Where("root_project_id = ?", rootProjectID).
		Group("user_id, parameter_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	var paramIDs []uint64
	seenParam := map[uint64]bool{}
	for _, r := range rows {
		if !seenParam[r.ParameterID] {
			seenParam[r.ParameterID] = true
			paramIDs = append(paramIDs, r.ParameterID)
		}
	}
	titles, err := parameterTitles(db, paramIDs)
	if err != nil {
		return nil, err
	}

	entries := []MemberEntry{}
	index := map[uint64]int{}
	for _, r := range rows {
		i, ok := index[r.UserID]
		if !ok {
			i = len(entries)
			index[r.UserID] = i
			entries = append(entries, MemberEntry{UserID: r.UserID})
		}
		entries[i].Parameters = append(entries[i].Parameters, ParameterTotal{
			ParameterID: r.ParameterID,
			Parameter:   titles[r.ParameterID],
			Total:       r.Total,
		})
		entries[i].OverallTotal += r.Total
	}

	var userIDs []uint64
	for uid := range index {
		userIDs = append(userIDs, uid)
	}
	if len(userIDs) > 0 {
		var users []types.User
		if err := db.Where("id IN ?", userIDs).Find(&users).Error; err != nil {
			return nil, err
		}
		for _, u := range users {
			if i, ok := index[u.ID]; ok {
				entries[i].UserName = u.UserName
			}
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].OverallTotal > entries[j].OverallTotal
	})
	return entries, nil
}

// ForumWise groups by (club-or-node, parameter). A contribution carries
// exactly one of the two forum columns.
func ForumWise(db *gorm.DB, rootProjectID uint64) ([]ForumEntry, error) {
	type row struct {
		ClubID      *uint64
		NodeID      *uint64
		ParameterID uint64
		Total       float64
	}
	var rows []row
	err := db.Table("contributions").
		Select("club_id, node_id, parameter_id, sum(value) as total").
		Where("root_project_id = ?", rootProjectID).
		Group("club_id, node_id, parameter_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	var paramIDs []uint64
	seenParam := map[uint64]bool{}
	for _, r := range rows {
		if !seenParam[r.ParameterID] {
			seenParam[r.ParameterID] = true
			paramIDs = append(paramIDs, r.ParameterID)
		}
	}
	titles, err := parameterTitles(db, paramIDs)
	if err != nil {
		return nil, err
	}

	type key struct {
		typ string
		id  uint64
	}
	entries := []ForumEntry{}
	index := map[key]int{}
	for _, r := range rows {
		var k key
		switch {
		case r.ClubID != nil:
			k = key{"club", *r.ClubID}
		case r.NodeID != nil:
			k = key{"node", *r.NodeID}
		default:
			continue // contribution with no forum; nothing to rank it under
		}
		i, ok := index[k]
		if !ok {
			i = len(entries)
			index[k] = i
			entries = append(entries, ForumEntry{ForumType: k.typ, ForumID: k.id})
		}
		entries[i].Parameters = append(entries[i].Parameters, ParameterTotal{
			ParameterID: r.ParameterID,
			Parameter:   titles[r.ParameterID],
			Total:       r.Total,
		})
		entries[i].OverallTotal += r.Total
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].OverallTotal > entries[j].OverallTotal
	})
	return entries, nil
}
