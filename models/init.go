package models

import (
	"sociallink/db"
	"sociallink/storage"
)

// Init creates or updates all tables
func Init() error {
	return db.Instance.AutoMigrate(
		&storage.Bucket{},
		&User{},
		&Grant{},
		&Invite{},
		&Badge{},
		&UserBadge{},
		&ProfileConfig{},
		&SocialLink{},
		&CustomLink{},
		&Embed{},
		&Asset{},
		&Motd{},
	)
}
