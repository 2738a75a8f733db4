package models

import "time"

// Gender drives the grammatical agreement used in outgoing mail.
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
	GenderOther  Gender = "X"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// Channel is the notification_preferences enum.
type Channel int

const (
	ChannelEmail    Channel = 0
	ChannelTelegram Channel = 1
	ChannelBoth     Channel = 2
	ChannelNone     Channel = 3
)

// DefaultChannel is assigned at registration.
const DefaultChannel = ChannelBoth

func (c Channel) Valid() bool {
	return c >= ChannelEmail && c <= ChannelNone
}

// WithoutEmail returns the channel left after the subscriber opts out of email.
func (c Channel) WithoutEmail() Channel {
	switch c {
	case ChannelEmail:
		return ChannelNone
	case ChannelBoth:
		return ChannelTelegram
	}
	return c
}

const (
	// NotificationsUnconfirmed marks a subscriber that has not redeemed the confirmation code.
	NotificationsUnconfirmed = -1
	// DefaultNotificationTime is 06:00 expressed as minute of day.
	DefaultNotificationTime = 6 * 60
)

// Subscriber is a registered user of the notification service.
// Integer enums carry no column default because their zero value is meaningful.
type Subscriber struct {
	Base
	Email                   string      `json:"email"                    gorm:"size:191;uniqueIndex;not null"`
	Password                string      `json:"-"                        gorm:"size:72;not null"`
	Name                    string      `json:"name"                     gorm:"size:100;not null"`
	Surname                 string      `json:"surname"                  gorm:"size:100;not null"`
	Gender                  Gender      `json:"gender"                   gorm:"type:char(1);not null"`
	Notifications           int         `json:"notifications"            gorm:"not null"`
	Telegram                string      `json:"telegram"                 gorm:"size:16;uniqueIndex;not null"`
	Keywords                StringArray `json:"keywords"                 gorm:"column:tags;type:text"`
	NotificationPreferences Channel     `json:"notification_preferences" gorm:"not null"`
	IncludeSimilarTags      bool        `json:"include_similar_tags"     gorm:"not null"`
	NotificationTime        int         `json:"notification_time"        gorm:"not null"`
	NotificationDayBefore   bool        `json:"notification_day_before"  gorm:"not null"`
	UnsubToken              string      `json:"-"                        gorm:"size:64;not null"`
	Onboarding              bool        `json:"-"                        gorm:"not null"`
	LastLogin               *time.Time  `json:"last_login"`
}

func (Subscriber) TableName() string { return "subscribers" }

// Confirmed reports whether the confirmation code has been redeemed.
func (s *Subscriber) Confirmed() bool {
	return s.Notifications > NotificationsUnconfirmed
}
