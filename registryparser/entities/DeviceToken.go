package entities

import "time"

// Platform is the kind of device a push token belongs to.
type Platform string

const (
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
	PlatformWeb     Platform = "web"
)

// Valid reports whether p is one of the supported platforms.
func (p Platform) Valid() bool {
	switch p {
	case PlatformAndroid, PlatformIOS, PlatformWeb:
		return true
	}
	return false
}

// DeviceToken is a push-delivery token registered by a user. Tokens are never
// hard-deleted; unregistering flips Active to false.
type DeviceToken struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"-"`
	Token     string    `json:"fcm_token"`
	Platform  Platform  `json:"device_type"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
