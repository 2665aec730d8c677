package main

import (
	"time"
)

type User struct {
	ID                string    `gorm:"primaryKey"` // uuid
	Username          string    `gorm:"uniqueIndex;not null"`
	PasswordHash      string    `gorm:"not null"`
	Email             *string   `gorm:"uniqueIndex"` // optional, unique when present
	EmailVerified     bool      `gorm:"default:true"`
	VerificationToken string    `gorm:"index;default:''"`
	ProfileImage      string    `gorm:"default:''"`
	Website           string    `gorm:"default:''"`
	Tagline           string    `gorm:"default:''"`
	FollowersCount    int       `gorm:"default:0"`
	FollowingCount    int       `gorm:"default:0"`
	IsPremium         bool      `gorm:"default:false"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	Pastes            []Paste   `gorm:"foreignKey:UserID"`
}

type Paste struct {
	ID              uint      `gorm:"primaryKey"`
	Title           string    `gorm:"default:''"`
	Content         string    `gorm:"not null"`
	Language        string    `gorm:"default:'text'"`
	PasswordHash    string    `gorm:"default:''"`
	ExpireTime      *int64    `gorm:"index"` // epoch seconds, nil = never
	IsPublic        bool      `gorm:"default:true;index"`
	Tags            string    `gorm:"default:''"` // comma-separated
	Views           int       `gorm:"default:0"`
	UserID          *string   `gorm:"index"` // nil = anonymous
	User            *User     `gorm:"foreignKey:UserID"`
	BurnAfterRead   bool      `gorm:"default:false"`
	ZeroKnowledge   bool      `gorm:"default:false"`
	CurrentVersion  int       `gorm:"default:1"`
	CollectionID    *uint     `gorm:"index"`
	OriginalPasteID *uint     `gorm:"index"` // fork parent
	ParentPasteID   *uint     `gorm:"index"` // chain parent
	ForkCount       int       `gorm:"default:0"`
	FlagCount       int       `gorm:"default:0"`
	CreatedAt       time.Time `gorm:"autoCreateTime;index"`
	LastModified    time.Time `gorm:"autoUpdateTime"`
}

// IsExpired reports whether the paste's expiry epoch has passed.
func (p *Paste) IsExpired() bool {
	return p.ExpireTime != nil && *p.ExpireTime <= time.Now().Unix()
}

// HasPassword reports whether viewing requires a password unlock.
func (p *Paste) HasPassword() bool {
	return p.PasswordHash != ""
}

// OwnerName is the display name used in listings.
func (p Paste) OwnerName() string {
	if p.User != nil {
		return p.User.Username
	}
	return "Anonymous"
}

// ExpiryEpoch is the expiry as epoch seconds for the client-side countdown;
// zero means the paste never expires.
func (p Paste) ExpiryEpoch() int64 {
	if p.ExpireTime == nil {
		return 0
	}
	return *p.ExpireTime
}

type PasteView struct {
	ID        uint      `gorm:"primaryKey"`
	PasteID   uint      `gorm:"uniqueIndex:idx_paste_ip;not null"`
	IPAddress string    `gorm:"uniqueIndex:idx_paste_ip;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

type PasteVersion struct {
	ID            uint      `gorm:"primaryKey"`
	PasteID       uint      `gorm:"uniqueIndex:idx_paste_version;not null"`
	VersionNumber int       `gorm:"uniqueIndex:idx_paste_version;not null"`
	Title         string    `gorm:"default:''"`
	Content       string    `gorm:"not null"`
	Language      string    `gorm:"default:'text'"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

type Comment struct {
	ID         uint      `gorm:"primaryKey"`
	PasteID    uint      `gorm:"index;not null"`
	UserID     *string   `gorm:"index"`
	User       *User     `gorm:"foreignKey:UserID"`
	Content    string    `gorm:"not null"`
	IsDeleted  bool      `gorm:"default:false"`
	IsFlagged  bool      `gorm:"default:false"`
	ReplyCount int       `gorm:"default:0"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

type CommentReply struct {
	ID        uint      `gorm:"primaryKey"`
	CommentID uint      `gorm:"index;not null"`
	PasteID   uint      `gorm:"index;not null"`
	UserID    *string   `gorm:"index"`
	User      *User     `gorm:"foreignKey:UserID"`
	Content   string    `gorm:"not null"`
	IsDeleted bool      `gorm:"default:false"`
	IsFlagged bool      `gorm:"default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

type CommentReport struct {
	ID          uint      `gorm:"primaryKey"`
	CommentID   *uint     `gorm:"index"`
	ReplyID     *uint     `gorm:"index"`
	ReporterID  *string   `gorm:"index"`
	Reason      string    `gorm:"not null"`
	Description string    `gorm:"default:''"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

type PasteReport struct {
	ID         uint      `gorm:"primaryKey"`
	PasteID    uint      `gorm:"index;not null"`
	ReporterID *string   `gorm:"index"`
	Reason     string    `gorm:"not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

type Collection struct {
	ID          uint      `gorm:"primaryKey"`
	UserID      string    `gorm:"index;not null"`
	User        *User     `gorm:"foreignKey:UserID"`
	Name        string    `gorm:"not null"`
	Description string    `gorm:"default:''"`
	IsPublic    bool      `gorm:"default:true"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

type CollectionPaste struct {
	ID           uint        `gorm:"primaryKey"`
	CollectionID uint        `gorm:"uniqueIndex:idx_collection_paste;not null"`
	Collection   *Collection `gorm:"foreignKey:CollectionID;constraint:OnDelete:CASCADE"`
	PasteID      uint        `gorm:"uniqueIndex:idx_collection_paste;not null"`
	CreatedAt    time.Time   `gorm:"autoCreateTime"`
}

type PasteTemplate struct {
	ID          uint      `gorm:"primaryKey"`
	UserID      *string   `gorm:"index"` // nil = built-in
	Name        string    `gorm:"not null"`
	Description string    `gorm:"default:''"`
	Content     string    `gorm:"not null"`
	Language    string    `gorm:"default:'text'"`
	Category    string    `gorm:"default:'General';index"`
	IsPublic    bool      `gorm:"default:true"`
	UsageCount  int       `gorm:"default:0"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

type DiscussionThread struct {
	ID        uint      `gorm:"primaryKey"`
	PasteID   uint      `gorm:"index;not null"`
	UserID    string    `gorm:"index;not null"`
	User      *User     `gorm:"foreignKey:UserID"`
	Title     string    `gorm:"not null"`
	Category  string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

type DiscussionPost struct {
	ID        uint      `gorm:"primaryKey"`
	ThreadID  uint      `gorm:"index;not null"`
	UserID    string    `gorm:"index;not null"`
	User      *User     `gorm:"foreignKey:UserID"`
	Content   string    `gorm:"not null"`
	IsDeleted bool      `gorm:"default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

type UserFollow struct {
	ID          uint      `gorm:"primaryKey"`
	FollowerID  string    `gorm:"uniqueIndex:idx_follow_edge;not null"`
	FollowingID string    `gorm:"uniqueIndex:idx_follow_edge;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// PasteFork records who forked what. The unique index doubles as the
// duplicate-fork guard, so check-then-insert cannot race.
type PasteFork struct {
	ID              uint      `gorm:"primaryKey"`
	OriginalPasteID uint      `gorm:"uniqueIndex:idx_fork_edge;not null"`
	ForkedPasteID   uint      `gorm:"index;not null"`
	ForkedByUserID  string    `gorm:"uniqueIndex:idx_fork_edge;not null"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
}

type Favorite struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    string    `gorm:"uniqueIndex:idx_user_fav;not null"`
	PasteID   uint      `gorm:"uniqueIndex:idx_user_fav;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

type Message struct {
	ID          uint      `gorm:"primaryKey"`
	SenderID    string    `gorm:"index;not null"`
	Sender      *User     `gorm:"foreignKey:SenderID"`
	RecipientID string    `gorm:"index;not null"`
	Recipient   *User     `gorm:"foreignKey:RecipientID"`
	Subject     string    `gorm:"default:''"`
	Content     string    `gorm:"not null"`
	ReplyToID   *uint     `gorm:"index"`
	ThreadID    *uint     `gorm:"index"` // root message of the conversation
	IsRead      bool      `gorm:"default:false"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// SiteSettings is a singleton row (ID 1), loaded once at startup.
type SiteSettings struct {
	ID                        uint   `gorm:"primaryKey"`
	SiteName                  string `gorm:"default:'PasteForge'"`
	MaxPasteSize              int64  `gorm:"default:524288"` // bytes
	DailyPasteLimitFree       int    `gorm:"default:50"`
	DailyPasteLimitPremium    int    `gorm:"default:250"`
	AutoBlurThreshold         int    `gorm:"default:3"`
	AutoDeleteThreshold       int    `gorm:"default:10"`
	RegistrationEnabled       bool   `gorm:"default:true"`
	EmailVerificationRequired bool   `gorm:"default:false"`
	AllowedEmailDomains       string `gorm:"default:'*'"` // comma-separated suffixes, * = any
	DefaultExpiry             string `gorm:"default:'never'"`
}

// Session rows exist for anonymous visitors too: the unlock list for
// password-protected pastes is session state, not account state.
type Session struct {
	ID             string    `gorm:"primaryKey"`
	UserID         *string   `gorm:"index"` // nil = anonymous session
	User           *User     `gorm:"foreignKey:UserID"`
	VerifiedPastes string    `gorm:"default:'[]'"` // JSON array of unlocked paste ids, capped
	ExpiresAt      time.Time `gorm:"index;not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

type APIKey struct {
	ID        uint       `gorm:"primaryKey"`
	Key       string     `gorm:"uniqueIndex;not null"`
	Name      string     `gorm:"not null"`
	UserID    string     `gorm:"not null;index"`
	User      User       `gorm:"foreignKey:UserID"`
	ExpiresAt *time.Time `gorm:"index"` // nil = never expires
	LastUsed  *time.Time
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

type Admin struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    string    `gorm:"uniqueIndex;not null"`
	User      User      `gorm:"foreignKey:UserID"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

type AuditLog struct {
	ID        uint      `gorm:"primaryKey"`
	Event     string    `gorm:"index;not null"`
	Category  string    `gorm:"index;default:''"`
	SubjectID string    `gorm:"default:''"`
	Severity  string    `gorm:"default:'info'"`
	Metadata  string    `gorm:"default:'{}'"` // JSON
	IPAddress string    `gorm:"default:''"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}
