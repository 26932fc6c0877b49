package migration

import (
	"time"

	"github.com/dropkiosk/dropkiosk/kiosk/database/models"
)

// MongoAuth mirrors the legacy kiosk's embedded rotating-token documents.
// Timestamps are millisecond epochs, validity is in minutes.
type MongoAuth struct {
	Token          string  `bson:"token"`
	Expires        int64   `bson:"expires"`
	ExpiryInterval float64 `bson:"expiry_interval"`
	Created        int64   `bson:"created"`
}

type MongoGameConfig struct {
	Duration    int `bson:"duration"`
	TargetScore int `bson:"target_score"`
}

// MongoDrop mirrors a document of the legacy `events` collection.
type MongoDrop struct {
	ID             string           `bson:"_id"`
	Name           string           `bson:"name"`
	Email          string           `bson:"email"`
	Expires        int64            `bson:"expires"`
	Codes          int              `bson:"codes"`
	CodesAvailable int              `bson:"codesAvailable"`
	AuthToken      string           `bson:"authToken"`
	Challenges     []string         `bson:"challenges"`
	GameConfig     *MongoGameConfig `bson:"game_config"`
	PublicAuth     *MongoAuth       `bson:"public_auth"`
	PrevPublicAuth *MongoAuth       `bson:"previous_public_auth"`
	Created        int64            `bson:"created"`
	Updated        int64            `bson:"updated"`
}

// MongoCode mirrors a document of the legacy `codes` collection. The
// claimed field was schemaless: a bool for settled codes, the string
// "unknown" for in-flight ones.
type MongoCode struct {
	ID                         string      `bson:"_id"`
	Event                      string      `bson:"event"`
	Claimed                    interface{} `bson:"claimed"`
	Scanned                    bool        `bson:"scanned"`
	AmountOfRemoteStatusChecks int         `bson:"amountOfRemoteStatusChecks"`
	LastRemoteStatusCheck      int64       `bson:"lastRemoteStatusCheck"`
	Error                      string      `bson:"error"`
	Expires                    int64       `bson:"expires"`
	Created                    int64       `bson:"created"`
	Updated                    int64       `bson:"updated"`
}

func convertAuth(a *MongoAuth) models.AccessToken {
	if a == nil {
		return models.AccessToken{}
	}
	return models.AccessToken{
		Token:           a.Token,
		CreatedAt:       msToTime(a.Created),
		ExpiresAt:       msToTime(a.Expires),
		ValidityMinutes: a.ExpiryInterval,
	}
}

func convertDrop(md MongoDrop) *models.Drop {
	game := models.GameConfig{DurationSeconds: 30, TargetScore: 5}
	if md.GameConfig != nil {
		game = models.GameConfig{
			DurationSeconds: md.GameConfig.Duration,
			TargetScore:     md.GameConfig.TargetScore,
		}
	}

	return &models.Drop{
		ID:             md.ID,
		Name:           md.Name,
		Email:          md.Email,
		CodeCount:      md.Codes,
		AvailableCount: md.CodesAvailable,
		AdminToken:     md.AuthToken,
		Kinds:          md.Challenges,
		Game:           game,
		CurrentAccess:  convertAuth(md.PublicAuth),
		PreviousAccess: convertAuth(md.PrevPublicAuth),
		ExpiresAt:      msToTime(md.Expires),
		CreatedAt:      msToTimeOrNow(md.Created),
		UpdatedAt:      msToTimeOrNow(md.Updated),
	}
}

func convertCode(mc MongoCode) *models.Code {
	return &models.Code{
		ID:                mc.ID,
		DropID:            mc.Event,
		Claimed:           convertClaimed(mc.Claimed),
		Scanned:           mc.Scanned,
		RemoteCheckCount:  mc.AmountOfRemoteStatusChecks,
		LastRemoteCheckAt: msToTime(mc.LastRemoteStatusCheck),
		Error:             mc.Error,
		ExpiresAt:         msToTime(mc.Expires),
		CreatedAt:         msToTimeOrNow(mc.Created),
		UpdatedAt:         msToTimeOrNow(mc.Updated),
	}
}

// convertClaimed folds the legacy schemaless claimed values into the
// tri-state enum. Anything unrecognized is treated as unknown so the
// reconciler re-verifies it instead of silently freeing the code.
func convertClaimed(v interface{}) models.ClaimStatus {
	switch val := v.(type) {
	case bool:
		return models.ClaimStatusFromBool(val)
	case string:
		if val == string(models.ClaimStatusUnknown) {
			return models.ClaimStatusUnknown
		}
	}
	return models.ClaimStatusUnknown
}

func msToTime(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func msToTimeOrNow(ms int64) time.Time {
	if ms <= 0 {
		return time.Now()
	}
	return time.UnixMilli(ms)
}
