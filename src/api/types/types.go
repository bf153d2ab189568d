package types

import "time"

// Users
type User struct {
	ID            uint64 `gorm:"primaryKey"`
	UserName      string `gorm:"size:64;uniqueIndex;not null"`
	Email         string `gorm:"size:256;uniqueIndex;not null"`
	Password      string `gorm:"size:128;not null" json:"-"`
	FirstName     string `gorm:"size:64"`
	LastName      string `gorm:"size:64"`
	ProfileImage  string `gorm:"size:512"`
	EmailVerified bool   `gorm:"default:false"`
	IsAdmin       bool   `gorm:"default:false"`
	IsBlocked     bool   `gorm:"default:false"`
	PostCount     uint32 `gorm:"default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Clubs
type Club struct {
	ID           uint64 `gorm:"primaryKey"`
	Name         string `gorm:"size:128;not null"`
	About        string `gorm:"size:512"`
	Description  string `gorm:"type:text"`
	ProfileImage string `gorm:"size:512"`
	CoverImage   string `gorm:"size:512"`
	IsPublic     bool   `gorm:"default:true"`
	CreatedBy    uint64 `gorm:"index;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Nodes
type Node struct {
	ID           uint64 `gorm:"primaryKey"`
	Name         string `gorm:"size:128;not null"`
	About        string `gorm:"size:512"`
	Description  string `gorm:"type:text"`
	ProfileImage string `gorm:"size:512"`
	CoverImage   string `gorm:"size:512"`
	IsPublic     bool   `gorm:"default:true"`
	CreatedBy    uint64 `gorm:"index;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Chapters: a club's presence inside a node
type Chapter struct {
	ID        uint64 `gorm:"primaryKey"`
	ClubID    uint64 `gorm:"index;not null"`
	NodeID    uint64 `gorm:"index;not null"`
	Name      string `gorm:"size:128;not null"`
	About     string `gorm:"size:512"`
	IsPublic  bool   `gorm:"default:true"`
	CreatedBy uint64 `gorm:"index;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Membership rows. Three tables, one shape per forum kind.
type ClubMember struct {
	ID        uint64 `gorm:"primaryKey"`
	ClubID    uint64 `gorm:"index:idx_club_member,unique;not null"`
	UserID    uint64 `gorm:"index:idx_club_member,unique;not null"`
	Role      string `gorm:"size:16;default:'member'"` // owner, admin, moderator, member
	Status    string `gorm:"size:16;default:'active'"`
	CreatedAt time.Time
}

type NodeMember struct {
	ID        uint64 `gorm:"primaryKey"`
	NodeID    uint64 `gorm:"index:idx_node_member,unique;not null"`
	UserID    uint64 `gorm:"index:idx_node_member,unique;not null"`
	Role      string `gorm:"size:16;default:'member'"`
	Status    string `gorm:"size:16;default:'active'"`
	CreatedAt time.Time
}

type ChapterMember struct {
	ID        uint64 `gorm:"primaryKey"`
	ChapterID uint64 `gorm:"index:idx_chapter_member,unique;not null"`
	UserID    uint64 `gorm:"index:idx_chapter_member,unique;not null"`
	Role      string `gorm:"size:16;default:'member'"`
	Status    string `gorm:"size:16;default:'active'"`
	CreatedAt time.Time
}

// Join requests for private forums
type JoinRequest struct {
	ID        uint64  `gorm:"primaryKey"`
	ClubID    *uint64 `gorm:"index"`
	NodeID    *uint64 `gorm:"index"`
	ChapterID *uint64 `gorm:"index"`
	UserID    uint64  `gorm:"index;not null"`
	Status    string  `gorm:"size:16;default:'pending'"`
	CreatedAt time.Time
}

// Invitations. Exactly one forum column set; row is deleted once consumed.
type Invitation struct {
	ID        uint64  `gorm:"primaryKey"`
	ClubID    *uint64 `gorm:"index"`
	NodeID    *uint64 `gorm:"index"`
	ChapterID *uint64 `gorm:"index"`
	UserID    uint64  `gorm:"index;not null"`
	InvitedBy uint64  `gorm:"not null"`
	Status    string  `gorm:"size:16;default:'pending'"`
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Rules & regulations
type RulesRegulations struct {
	ID           uint64  `gorm:"primaryKey"`
	Title        string  `gorm:"size:255;not null"`
	Description  string  `gorm:"type:text"`
	Category     string  `gorm:"size:64"`
	Significance string  `gorm:"size:64"`
	Tags         string  `gorm:"size:512"` // comma separated
	ClubID       *uint64 `gorm:"index"`
	NodeID       *uint64 `gorm:"index"`
	ChapterID    *uint64 `gorm:"index"`
	Status       string  `gorm:"size:16;index;default:'draft'"` // draft, proposed, published, archived, rejected
	Version      uint32  `gorm:"default:1"`
	CreatedBy    uint64  `gorm:"index;not null"`
	PublishedBy  *uint64
	PublishedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type RuleLike struct {
	ID        uint64 `gorm:"primaryKey"`
	RuleID    uint64 `gorm:"index:idx_rule_like,unique;not null"`
	UserID    uint64 `gorm:"index:idx_rule_like,unique;not null"`
	CreatedAt time.Time
}

type RuleView struct {
	ID        uint64 `gorm:"primaryKey"`
	RuleID    uint64 `gorm:"index;not null"`
	UserID    uint64 `gorm:"not null"`
	CreatedAt time.Time
}

type RuleFile struct {
	ID       uint64 `gorm:"primaryKey"`
	RuleID   uint64 `gorm:"index;not null"`
	URL      string `gorm:"size:512;not null"`
	Name     string `gorm:"size:255"`
	MimeType string `gorm:"size:128"`
	Size     int64
}

// Projects
type Project struct {
	ID               uint64  `gorm:"primaryKey"`
	Title            string  `gorm:"size:255;not null"`
	Significance     string  `gorm:"type:text"`
	SolutionApproach string  `gorm:"type:text"`
	ClubID           *uint64 `gorm:"index"`
	NodeID           *uint64 `gorm:"index"`
	ChapterID        *uint64 `gorm:"index"`
	Status           string  `gorm:"size:16;index;default:'draft'"`
	Version          uint32  `gorm:"default:1"`
	RootProjectID    uint64  `gorm:"index"` // equals ID for the original project
	Deadline         *time.Time
	CreatedBy        uint64 `gorm:"index;not null"`
	PublishedBy      *uint64
	PublishedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type ProjectParameter struct {
	ID        uint64 `gorm:"primaryKey"`
	ProjectID uint64 `gorm:"index;not null"`
	Title     string `gorm:"size:128;not null"`
	Unit      string `gorm:"size:32"`
}

type ProjectFile struct {
	ID        uint64 `gorm:"primaryKey"`
	ProjectID uint64 `gorm:"index;not null"`
	URL       string `gorm:"size:512;not null"`
	Name      string `gorm:"size:255"`
	MimeType  string `gorm:"size:128"`
	Size      int64
}

// Adoption rows link a rule or project to a forum. The row created in the
// asset's home forum carries IsOrigin and can never be removed.
type Adoption struct {
	ID         uint64  `gorm:"primaryKey"`
	AssetKind  string  `gorm:"size:16;index;not null"` // rules, project
	RuleID     *uint64 `gorm:"index"`
	ProjectID  *uint64 `gorm:"index"`
	ClubID     *uint64 `gorm:"index"`
	NodeID     *uint64 `gorm:"index"`
	ChapterID  *uint64 `gorm:"index"`
	ProposedBy uint64  `gorm:"not null"`
	AcceptedBy *uint64
	Status     string `gorm:"size:16;index;default:'proposed'"` // proposed, published
	Message    string `gorm:"size:512"`
	IsOrigin   bool   `gorm:"default:false"`
	Removed    bool   `gorm:"default:false"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Contributions against a project parameter
type Contribution struct {
	ID            uint64  `gorm:"primaryKey"`
	ProjectID     uint64  `gorm:"index;not null"`
	RootProjectID uint64  `gorm:"index;not null"`
	ParameterID   uint64  `gorm:"index;not null"`
	ClubID        *uint64 `gorm:"index"`
	NodeID        *uint64 `gorm:"index"`
	UserID        uint64  `gorm:"index;not null"`
	Value         float64 `gorm:"not null"`
	Status        string  `gorm:"size:16;index;default:'pending'"` // accepted, pending, rejected
	ReviewedBy    *uint64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type ContributionFile struct {
	ID             uint64 `gorm:"primaryKey"`
	ContributionID uint64 `gorm:"index;not null"`
	URL            string `gorm:"size:512;not null"`
	Name           string `gorm:"size:255"`
	MimeType       string `gorm:"size:128"`
	Size           int64
}

// Activity log entries used to rebuild a project timeline
type Activity struct {
	ID             uint64 `gorm:"primaryKey"`
	ContributionID uint64 `gorm:"index;not null"`
	ProjectID      uint64 `gorm:"index;not null"`
	AuthorID       uint64 `gorm:"not null"`
	Message        string `gorm:"size:512"`
	CreatedAt      time.Time
}

// Generic posts / announcements
type GenericPost struct {
	ID        uint64  `gorm:"primaryKey"`
	Content   string  `gorm:"type:text;not null"`
	ClubID    *uint64 `gorm:"index"`
	NodeID    *uint64 `gorm:"index"`
	ChapterID *uint64 `gorm:"index"`
	CreatedBy uint64  `gorm:"index;not null"`
	Status    string  `gorm:"size:16;index;default:'active'"` // active, deleted
	CreatedAt time.Time
	UpdatedAt time.Time
}

type PostLike struct {
	ID        uint64 `gorm:"primaryKey"`
	PostID    uint64 `gorm:"index:idx_post_like,unique;not null"`
	UserID    uint64 `gorm:"index:idx_post_like,unique;not null"`
	CreatedAt time.Time
}

type PostFile struct {
	ID       uint64 `gorm:"primaryKey"`
	PostID   uint64 `gorm:"index;not null"`
	URL      string `gorm:"size:512;not null"`
	Name     string `gorm:"size:255"`
	MimeType string `gorm:"size:128"`
	Size     int64
}

type FeedEntry struct {
	ID        uint64 `gorm:"primaryKey"`
	UserID    uint64 `gorm:"index;not null"`
	AssetType string `gorm:"size:16;not null"`
	AssetID   uint64 `gorm:"not null"`
	CreatedAt time.Time
}

// Debates and issues exist here only as report targets; their own workflows
// live in sibling services.
type Debate struct {
	ID        uint64  `gorm:"primaryKey"`
	Topic     string  `gorm:"size:255;not null"`
	Content   string  `gorm:"type:text"`
	ClubID    *uint64 `gorm:"index"`
	NodeID    *uint64 `gorm:"index"`
	ChapterID *uint64 `gorm:"index"`
	CreatedBy uint64  `gorm:"not null"`
	CreatedAt time.Time
}

type Issue struct {
	ID        uint64  `gorm:"primaryKey"`
	Title     string  `gorm:"size:255;not null"`
	Content   string  `gorm:"type:text"`
	ClubID    *uint64 `gorm:"index"`
	NodeID    *uint64 `gorm:"index"`
	ChapterID *uint64 `gorm:"index"`
	CreatedBy uint64  `gorm:"not null"`
	CreatedAt time.Time
}

// Report reasons catalog
type ReportReason struct {
	ID          uint64 `gorm:"primaryKey"`
	Title       string `gorm:"size:128;not null"`
	Description string `gorm:"size:512"`
}

// Reports against an arbitrary asset; assetId is opaque at write time
type Report struct {
	ID          uint64 `gorm:"primaryKey"`
	AssetType   string `gorm:"size:16;index;not null"` // rules, debate, issues, projects, standard
	AssetID     uint64 `gorm:"index;not null"`
	ReasonID    uint64 `gorm:"index;not null"`
	ReporterID  uint64 `gorm:"index;not null"`
	Description string `gorm:"size:1024"`
	Status      string `gorm:"size:16;index;default:'pending'"` // pending, under_review, resolved, rejected
	ReviewedBy  *uint64
	ReviewNotes string `gorm:"size:1024"`
	ReviewedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

/// Standard plugins: admin-defined field schemas for dynamically typed assets
type StandardPlugin struct {
	ID          uint64 `gorm:"primaryKey"`
	Name        string `gorm:"size:128;uniqueIndex;not null"`
	Description string `gorm:"size:512"`
	Fields      string `gorm:"type:text;not null"` // JSON field list, see the plugin package
	CreatedBy   uint64 `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type StandardAsset struct {
	ID        uint64  `gorm:"primaryKey"`
	PluginID  uint64  `gorm:"index;not null"`
	Data      string  `gorm:"type:text;not null"` // JSON payload validated against the plugin fields
	ClubID    *uint64 `gorm:"index"`
	NodeID    *uint64 `gorm:"index"`
	ChapterID *uint64 `gorm:"index"`
	CreatedBy uint64  `gorm:"not null"`
	CreatedAt time.Time
}

// Settings
type Setting struct {
	ID    uint8  `gorm:"primaryKey"`
	Name  string `gorm:"size:32;not null"`
	Value string `gorm:"size:256;not null"`
}
