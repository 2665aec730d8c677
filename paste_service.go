package main

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PasteService struct {
	db       *gorm.DB
	settings *SettingsStore
	related  *RelatedPastes
	audit    *AuditLogger
}

func NewPasteService(database *gorm.DB, settings *SettingsStore, related *RelatedPastes, audit *AuditLogger) *PasteService {
	return &PasteService{db: database, settings: settings, related: related, audit: audit}
}

type CreatePasteParams struct {
	Title           string
	Content         string
	Language        string
	IsPublic        bool
	Password        string
	Expire          string // expiry code: never, 10m, 1h, 1d, 1w, 1month
	Tags            string
	BurnAfterRead   bool
	ZeroKnowledge   bool
	UserID          *string
	CollectionID    *uint
	OriginalPasteID *uint
	ParentPasteID   *uint
}

// parseExpiry turns a relative duration code into an absolute expiry epoch.
// "never" falls back to the site default expiry when one is configured.
func parseExpiry(code, siteDefault string) *int64 {
	if code == "" {
		code = "never"
	}
	if code == "never" && siteDefault != "" && siteDefault != "never" {
		code = siteDefault
	}

	var d time.Duration
	switch code {
	case "never":
		return nil
	case "10m":
		d = 10 * time.Minute
	case "1h":
		d = time.Hour
	case "1d":
		d = 24 * time.Hour
	case "1w":
		d = 7 * 24 * time.Hour
	case "1month":
		d = 30 * 24 * time.Hour
	default:
		return nil
	}
	epoch := time.Now().Add(d).Unix()
	return &epoch
}

func startOfToday() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// CreatePaste validates limits and inserts the paste. The daily-quota count
// runs inside the same transaction as the insert so concurrent submissions
// from one user cannot slip past the limit.
func (s *PasteService) CreatePaste(p CreatePasteParams) (*Paste, error) {
	if len(p.Content) == 0 {
		return nil, errors.New("paste content cannot be empty")
	}

	settings := s.settings.Current()
	if int64(len(p.Content)) > settings.MaxPasteSize {
		return nil, ErrPasteTooLarge
	}

	if p.Language == "" {
		p.Language = "text"
	}

	passwordHash := ""
	if p.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		passwordHash = string(hashed)
	}

	paste := &Paste{
		Title:           p.Title,
		Content:         p.Content,
		Language:        p.Language,
		PasswordHash:    passwordHash,
		ExpireTime:      parseExpiry(p.Expire, settings.DefaultExpiry),
		IsPublic:        p.IsPublic,
		Tags:            normalizeTags(p.Tags),
		UserID:          p.UserID,
		BurnAfterRead:   p.BurnAfterRead,
		ZeroKnowledge:   p.ZeroKnowledge,
		CollectionID:    p.CollectionID,
		OriginalPasteID: p.OriginalPasteID,
		ParentPasteID:   p.ParentPasteID,
		CurrentVersion:  1,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if p.CollectionID != nil {
			// Filing into a collection requires owning it.
			if p.UserID == nil {
				return ErrNotOwner
			}
			var collection Collection
			if err := tx.First(&collection, *p.CollectionID).Error; err != nil {
				return ErrNotFound
			}
			if collection.UserID != *p.UserID {
				return ErrNotOwner
			}
		}
		if p.UserID != nil {
			limit := settings.DailyPasteLimitFree
			var owner User
			if err := tx.First(&owner, "id = ?", *p.UserID).Error; err == nil && owner.IsPremium {
				limit = settings.DailyPasteLimitPremium
			}
			var todays int64
			if err := tx.Model(&Paste{}).
				Where("user_id = ? AND created_at >= ?", *p.UserID, startOfToday()).
				Count(&todays).Error; err != nil {
				return err
			}
			if todays >= int64(limit) {
				return ErrDailyLimit
			}
		}
		if err := tx.Create(paste).Error; err != nil {
			return err
		}
		if p.CollectionID != nil {
			return tx.Create(&CollectionPaste{CollectionID: *p.CollectionID, PasteID: paste.ID}).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	visibility := "public"
	if !paste.IsPublic {
		visibility = "private"
	}
	metricPastesCreated.WithLabelValues(visibility).Inc()
	s.related.ClearCache(paste.ID)
	return paste, nil
}

func normalizeTags(tags string) string {
	parts := strings.Split(tags, ",")
	out := parts[:0]
	for _, t := range parts {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, ",")
}

// GetVisible loads a paste, treating expired pastes and pastes at or past the
// auto-delete flag threshold as nonexistent. Moderation suppression is
// deliberately indistinguishable from a missing row.
func (s *PasteService) GetVisible(id uint) (*Paste, error) {
	var paste Paste
	if err := s.db.Preload("User").First(&paste, id).Error; err != nil {
		return nil, ErrPasteNotFound
	}
	if paste.IsExpired() {
		return nil, ErrPasteNotFound
	}
	if paste.FlagCount >= s.settings.Current().AutoDeleteThreshold {
		return nil, ErrPasteNotFound
	}
	return &paste, nil
}

// IsBlurred reports whether the paste's content must be withheld (flag count
// in the blur band). Such a paste still exists but raw, download, clone,
// fork, and embed are disabled.
func (s *PasteService) IsBlurred(paste *Paste) bool {
	settings := s.settings.Current()
	return paste.FlagCount >= settings.AutoBlurThreshold &&
		paste.FlagCount < settings.AutoDeleteThreshold
}

// CompleteRead finishes a successful content read: burn-after-read pastes are
// destroyed, everything else gets a unique-per-IP view recorded. The
// insert-or-ignore and the recount share one transaction so concurrent first
// views from distinct IPs cannot lose updates.
func (s *PasteService) CompleteRead(paste *Paste, viewerIP string) error {
	if paste.BurnAfterRead {
		metricPasteBurns.Inc()
		s.audit.Log("paste_burned", "paste", itoa(paste.ID), nil)
		s.related.ClearCache(paste.ID)
		return s.db.Delete(&Paste{}, paste.ID).Error
	}

	metricPasteViews.Inc()
	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&PasteView{PasteID: paste.ID, IPAddress: viewerIP})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Repeat view from a counted IP; leave the total alone.
			return nil
		}
		var distinct int64
		if err := tx.Model(&PasteView{}).Where("paste_id = ?", paste.ID).Count(&distinct).Error; err != nil {
			return err
		}
		paste.Views = int(distinct)
		return tx.Model(&Paste{}).Where("id = ?", paste.ID).
			Update("views", distinct).Error
	})
}

// VerifyPastePassword checks a submitted password against the stored hash.
func (s *PasteService) VerifyPastePassword(paste *Paste, password string) bool {
	if paste.PasswordHash == "" {
		return true
	}
	return bcrypt.CompareHashAndPassword([]byte(paste.PasswordHash), []byte(password)) == nil
}

type EditPasteParams struct {
	Title    string
	Content  string
	Language string
	IsPublic bool
	Password *string // nil = keep current, "" = remove
	Expire   *string // nil = keep current
	Tags     string
}

// EditPaste is owner-only. The pre-edit content is snapshotted as a
// PasteVersion when it actually changed, and the version counter advances.
func (s *PasteService) EditPaste(id uint, userID string, p EditPasteParams) (*Paste, error) {
	var paste Paste
	if err := s.db.First(&paste, id).Error; err != nil {
		return nil, ErrPasteNotFound
	}
	if paste.UserID == nil || *paste.UserID != userID {
		return nil, ErrNotOwner
	}
	if len(p.Content) == 0 {
		return nil, errors.New("paste content cannot be empty")
	}
	settings := s.settings.Current()
	if int64(len(p.Content)) > settings.MaxPasteSize {
		return nil, ErrPasteTooLarge
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if contentChecksum(p.Content) != contentChecksum(paste.Content) {
			snapshot := &PasteVersion{
				PasteID:       paste.ID,
				VersionNumber: paste.CurrentVersion,
				Title:         paste.Title,
				Content:       paste.Content,
				Language:      paste.Language,
			}
			if err := tx.Create(snapshot).Error; err != nil {
				return err
			}
			paste.CurrentVersion++
		}

		paste.Title = p.Title
		paste.Content = p.Content
		if p.Language != "" {
			paste.Language = p.Language
		}
		paste.IsPublic = p.IsPublic
		paste.Tags = normalizeTags(p.Tags)

		if p.Password != nil {
			if *p.Password == "" {
				paste.PasswordHash = ""
			} else {
				hashed, err := bcrypt.GenerateFromPassword([]byte(*p.Password), bcrypt.DefaultCost)
				if err != nil {
					return err
				}
				paste.PasswordHash = string(hashed)
			}
		}
		if p.Expire != nil {
			paste.ExpireTime = parseExpiry(*p.Expire, settings.DefaultExpiry)
		}
		paste.LastModified = time.Now()

		return tx.Save(&paste).Error
	})
	if err != nil {
		return nil, err
	}

	s.related.ClearCache(paste.ID)
	return &paste, nil
}

// DeletePaste is an owner-only hard delete.
func (s *PasteService) DeletePaste(id uint, userID string) error {
	var paste Paste
	if err := s.db.First(&paste, id).Error; err != nil {
		return ErrPasteNotFound
	}
	if paste.UserID == nil || *paste.UserID != userID {
		return ErrNotOwner
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("paste_id = ?", id).Delete(&PasteView{}).Error; err != nil {
			return err
		}
		if err := tx.Where("paste_id = ?", id).Delete(&PasteVersion{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Paste{}, id).Error
	})
	if err != nil {
		return err
	}

	s.audit.Log("paste_deleted", "paste", itoa(id), map[string]any{"user_id": userID})
	s.related.ClearCache(id)
	return nil
}

// ForkPaste copies an existing paste for the requesting user. Password and
// burn-after-read never carry over. Authenticated forkers get a fork edge
// row, which also enforces one fork per user per original; anonymous forks
// only bump the counter.
func (s *PasteService) ForkPaste(originalID uint, userID *string) (*Paste, error) {
	original, err := s.GetVisible(originalID)
	if err != nil {
		return nil, err
	}
	if s.IsBlurred(original) {
		return nil, ErrContentHidden
	}
	if userID != nil && original.UserID != nil && *userID == *original.UserID {
		return nil, ErrForkOwnPaste
	}

	title := original.Title
	if !strings.HasPrefix(title, "Fork of ") {
		title = "Fork of " + title
	}

	fork := &Paste{
		Title:           title,
		Content:         original.Content,
		Language:        original.Language,
		Tags:            original.Tags,
		ExpireTime:      original.ExpireTime,
		IsPublic:        original.IsPublic,
		ZeroKnowledge:   original.ZeroKnowledge,
		UserID:          userID,
		OriginalPasteID: &original.ID,
		CurrentVersion:  1,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if userID != nil {
			var existing int64
			if err := tx.Model(&PasteFork{}).
				Where("original_paste_id = ? AND forked_by_user_id = ?", originalID, *userID).
				Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				return ErrAlreadyForked
			}
		}

		if err := tx.Create(fork).Error; err != nil {
			return err
		}

		if userID != nil {
			edge := &PasteFork{
				OriginalPasteID: originalID,
				ForkedPasteID:   fork.ID,
				ForkedByUserID:  *userID,
			}
			if err := tx.Create(edge).Error; err != nil {
				// Unique index backstop for a racing duplicate fork.
				return ErrAlreadyForked
			}
		}

		return tx.Model(&Paste{}).Where("id = ?", originalID).
			UpdateColumn("fork_count", gorm.Expr("fork_count + 1")).Error
	})
	if err != nil {
		return nil, err
	}

	metricPasteForks.Inc()
	s.audit.Log("paste_forked", "paste", itoa(originalID), map[string]any{
		"fork_id": fork.ID,
	})
	return fork, nil
}

// FlagPaste records a report and advances the moderation counter atomically.
// Crossing the blur or delete thresholds needs no extra action here: reads
// consult flag_count on every load.
func (s *PasteService) FlagPaste(id uint, reporterID *string, reason string) error {
	if _, err := s.GetVisible(id); err != nil {
		return err
	}
	if strings.TrimSpace(reason) == "" {
		return ErrInvalidInput
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		report := &PasteReport{PasteID: id, ReporterID: reporterID, Reason: reason}
		if err := tx.Create(report).Error; err != nil {
			return err
		}
		return tx.Model(&Paste{}).Where("id = ?", id).
			UpdateColumn("flag_count", gorm.Expr("flag_count + 1")).Error
	})
}

// ArchivePage returns one page of the public archive, filtered by an optional
// substring search over title/content/tags and an exact language match.
func (s *PasteService) ArchivePage(search, language string, page, perPage int) ([]Paste, int64, error) {
	if page < 1 {
		page = 1
	}
	settings := s.settings.Current()

	query := s.db.Model(&Paste{}).Preload("User").
		Where("is_public = ?", true).
		Where("password_hash = ''").
		Where("zero_knowledge = ?", false).
		Where("flag_count < ?", settings.AutoBlurThreshold).
		Where("expire_time IS NULL OR expire_time > ?", time.Now().Unix())

	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("title LIKE ? OR content LIKE ? OR tags LIKE ?", pattern, pattern, pattern)
	}
	if language != "" {
		query = query.Where("language = ?", language)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var pastes []Paste
	err := query.Order("created_at DESC").
		Limit(perPage).Offset((page - 1) * perPage).
		Find(&pastes).Error
	return pastes, total, err
}

// LatestPastes lists the newest listable public pastes.
func (s *PasteService) LatestPastes(limit int) ([]Paste, error) {
	settings := s.settings.Current()
	var pastes []Paste
	err := s.db.Preload("User").
		Where("is_public = ? AND password_hash = '' AND zero_knowledge = ?", true, false).
		Where("flag_count < ?", settings.AutoBlurThreshold).
		Where("expire_time IS NULL OR expire_time > ?", time.Now().Unix()).
		Order("created_at DESC").Limit(limit).
		Find(&pastes).Error
	return pastes, err
}

func (s *PasteService) GetUserPastes(userID string) ([]Paste, error) {
	var pastes []Paste
	err := s.db.Where("user_id = ?", userID).
		Where("expire_time IS NULL OR expire_time > ?", time.Now().Unix()).
		Order("created_at DESC").Find(&pastes).Error
	return pastes, err
}

// ListVersions returns historical snapshots, newest first.
func (s *PasteService) ListVersions(pasteID uint) ([]PasteVersion, error) {
	var versions []PasteVersion
	err := s.db.Where("paste_id = ?", pasteID).
		Order("version_number DESC").Find(&versions).Error
	return versions, err
}

func (s *PasteService) GetVersion(pasteID uint, versionNumber int) (*PasteVersion, error) {
	var version PasteVersion
	err := s.db.Where("paste_id = ? AND version_number = ?", pasteID, versionNumber).
		First(&version).Error
	if err != nil {
		return nil, ErrNotFound
	}
	return &version, nil
}

// GetChildren lists chain continuations of a paste.
func (s *PasteService) GetChildren(pasteID uint) ([]Paste, error) {
	var children []Paste
	err := s.db.Preload("User").
		Where("parent_paste_id = ?", pasteID).
		Where("expire_time IS NULL OR expire_time > ?", time.Now().Unix()).
		Order("created_at ASC").Find(&children).Error
	return children, err
}

// GetForks lists forks of a paste.
func (s *PasteService) GetForks(pasteID uint) ([]Paste, error) {
	var forks []Paste
	err := s.db.Preload("User").
		Where("original_paste_id = ?", pasteID).
		Where("expire_time IS NULL OR expire_time > ?", time.Now().Unix()).
		Order("created_at DESC").Find(&forks).Error
	return forks, err
}

// GetChain walks parent links from a paste up to its root, root first.
func (s *PasteService) GetChain(paste *Paste) ([]Paste, error) {
	var chain []Paste
	current := paste
	for current.ParentPasteID != nil {
		var parent Paste
		if err := s.db.First(&parent, *current.ParentPasteID).Error; err != nil {
			break
		}
		chain = append([]Paste{parent}, chain...)
		current = &parent
	}
	return chain, nil
}

func (s *PasteService) CleanupExpiredPastes() (int64, error) {
	result := s.db.Where("expire_time IS NOT NULL AND expire_time <= ?", time.Now().Unix()).
		Delete(&Paste{})
	return result.RowsAffected, result.Error
}
