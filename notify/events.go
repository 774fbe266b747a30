package notify

import (
	"sociallink/models"
)

func UserRegistered(user *models.User) {
	Publish(Event{
		Type:    EventUserRegistered,
		Content: "New user registered: **" + user.Username + "**",
		Data:    map[string]string{"user_id": user.ID, "username": user.Username},
	})
}

func UserBanned(user, by *models.User) {
	content := "**" + user.Username + "** was banned by " + by.Username
	if user.BanReason != "" {
		content += ": " + user.BanReason
	}
	Publish(Event{
		Type:    EventUserBanned,
		Content: content,
		Data:    map[string]string{"user_id": user.ID, "username": user.Username, "reason": user.BanReason},
	})
}

func MotdUpdated(motd *models.Motd, by *models.User) {
	Publish(Event{
		Type:    EventMotdUpdated,
		Content: by.Username + " updated the MOTD: " + motd.Message,
		Data:    map[string]string{"message": motd.Message},
	})
}
