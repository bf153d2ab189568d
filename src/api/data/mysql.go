package data

import (
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/clubwize/backend/src/api/types"
)

func MustMySQL(dsn string) *gorm.DB {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	return db
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.User{},
		&types.Club{},
		&types.Node{},
		&types.Chapter{},
		&types.ClubMember{},
		&types.NodeMember{},
		&types.ChapterMember{},
		&types.JoinRequest{},
		&types.Invitation{},
		&types.RulesRegulations{},
		&types.RuleLike{},
		&types.RuleView{},
		&types.RuleFile{},
		&types.Project{},
		&types.ProjectParameter{},
		&types.ProjectFile{},
		&types.Adoption{},
		&types.Contribution{},
		&types.ContributionFile{},
		&types.Activity{},
		&types.GenericPost{},
		&types.PostLike{},
		&types.PostFile{},
		&types.FeedEntry{},
		&types.Debate{},
		&types.Issue{},
		&types.ReportReason{},
		&types.Report{},
		&types.StandardPlugin{},
		&types.StandardAsset{},
		&types.Setting{},
	)
}
