package forum

import (
	"errors"

	"gorm.io/gorm"

	"github.com/clubwize/backend/src/api/types"
)

type Type string

const (
	Club    Type = "club"
	Node    Type = "node"
	Chapter Type = "chapter"
)

var (
	ErrAmbiguous = errors.New("exactly one of club, node or chapter must be set")
	ErrNotFound  = errors.New("forum not found")
)

// Forum identifies exactly one scoping container.
type Forum struct {
	Type Type
	ID   uint64
}

// New builds a Forum from the three optional id fields a request may carry.
// Zero or more than one set is rejected.
func New(clubID, nodeID, chapterID *uint64) (Forum, error) {
	set := 0
	var f Forum
	if clubID != nil {
		set++
		f = Forum{Type: Club, ID: *clubID}
	}
	if nodeID != nil {
		set++
		f = Forum{Type: Node, ID: *nodeID}
	}
	if chapterID != nil {
		set++
		f = Forum{Type: Chapter, ID: *chapterID}
	}
	if set != 1 {
		return Forum{}, ErrAmbiguous
	}
	return f, nil
}

// Columns returns the three nullable forum columns with the matching one set,
// in club, node, chapter order.
func (f Forum) Columns() (clubID, nodeID, chapterID *uint64) {
	id := f.ID
	switch f.Type {
	case Club:
		clubID = &id
	case Node:
		nodeID = &id
	case Chapter:
		chapterID = &id
	}
	return
}

type Role string

const (
	RoleOwner     Role = "owner"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleMember    Role = "member"
)

// Privileged reports whether the role is anything above a plain member.
func (r Role) Privileged() bool {
	return r == RoleOwner || r == RoleAdmin || r == RoleModerator
}

// Exists checks the forum row itself.
func Exists(db *gorm.DB, f Forum) (bool, error) {
	var err error
	switch f.Type {
	case Club:
		err = db.First(&types.Club{}, "id = ?", f.ID).Error
	case Node:
		err = db.First(&types.Node{}, "id = ?", f.ID).Error
	case Chapter:
		err = db.First(&types.Chapter{}, "id = ?", f.ID).Error
	default:
		return false, ErrAmbiguous
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Membership resolves the user's role in the forum. A missing row means the
// user simply is not a member; that is not an error.
func Membership(db *gorm.DB, f Forum, userID uint64) (Role, bool, error) {
	var (
		role string
		err  error
	)
	switch f.Type {
	case Club:
		var m types.ClubMember
		err = db.First(&m, "club_id = ? AND user_id = ?", f.ID, userID).Error
		role = m.Role
	case Node:
		var m types.NodeMember
		err = db.First(&m, "node_id = ? AND user_id = ?", f.ID, userID).Error
		role = m.Role
	case Chapter:
		var m types.ChapterMember
		err = db.First(&m, "chapter_id = ? AND user_id = ?", f.ID, userID).Error
		role = m.Role
	default:
		return "", false, ErrAmbiguous
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return Role(role), true, nil
}

// AddMember inserts a membership row for the forum within the caller's
// transaction.
func AddMember(tx *gorm.DB, f Forum, userID uint64, role Role) error {
	switch f.Type {
	case Club:
		return tx.Create(&types.ClubMember{ClubID: f.ID, UserID: userID, Role: string(role), Status: "active"}).Error
	case Node:
		return tx.Create(&types.NodeMember{NodeID: f.ID, UserID: userID, Role: string(role), Status: "active"}).Error
	case Chapter:
		return tx.Create(&types.ChapterMember{ChapterID: f.ID, UserID: userID, Role: string(role), Status: "active"}).Error
	}
	return ErrAmbiguous
}

// IsPublic reads the forum's visibility flag.
func IsPublic(db *gorm.DB, f Forum) (bool, error) {
	switch f.Type {
	case Club:
		var c types.Club
		if err := db.First(&c, "id = ?", f.ID).Error; err != nil {
			return false, err
		}
		return c.IsPublic, nil
	case Node:
		var n types.Node
		if err := db.First(&n, "id = ?", f.ID).Error; err != nil {
			return false, err
		}
		return n.IsPublic, nil
	case Chapter:
		var ch types.Chapter
		if err := db.First(&ch, "id = ?", f.ID).Error; err != nil {
			return false, err
		}
		return ch.IsPublic, nil
	}
	return false, ErrAmbiguous
}
