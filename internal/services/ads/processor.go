package ads

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/adimport/internal/interfaces"
	"github.com/ternarybob/adimport/internal/models"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

// adNamespace scopes dedup keys so they never collide with other uuid v5 users
var adNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("adimport/ads"))

// record is the subset of an imported item the processor understands
type record struct {
	ID          string `json:"id"`
	ArchiveID   string `json:"ad_archive_id"`
	PageName    string `json:"page_name"`
	Body        string `json:"ad_creative_body"`
	BodyAlt     string `json:"body"`
	SnapshotURL string `json:"ad_snapshot_url"`
}

// Processor imports one ad per item into ad storage, deduplicating by source id,
// then by normalized creative text, then by the item's canonical JSON
type Processor struct {
	storage interfaces.AdStorage
	logger  arbor.ILogger
	delay   time.Duration
	limiter *rate.Limiter
}

// Option configures the Processor
type Option func(*Processor)

// WithItemDelay adds a fixed delay before each write
func WithItemDelay(d time.Duration) Option {
	return func(p *Processor) {
		p.delay = d
	}
}

// WithRateLimit caps writes per second. Zero or negative means unlimited.
func WithRateLimit(perSecond float64) Option {
	return func(p *Processor) {
		if perSecond > 0 {
			burst := int(perSecond)
			if burst < 1 {
				burst = 1
			}
			p.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// NewProcessor creates an ad processor
func NewProcessor(storage interfaces.AdStorage, logger arbor.ILogger, opts ...Option) *Processor {
	p := &Processor{
		storage: storage,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process decodes, deduplicates and stores one item
func (p *Processor) Process(ctx context.Context, task models.ImportTask, index int, item models.ImportItem) error {
	ad, err := Decode(task.BusinessID, item)
	if err != nil {
		return err
	}
	ad.ImportTaskID = task.TaskID

	if p.delay > 0 {
		timer := time.NewTimer(p.delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	created, err := p.storage.UpsertAd(ctx, ad)
	if err != nil {
		return err
	}

	p.logger.Debug().
		Str("ad_id", ad.ID).
		Str("business_id", ad.BusinessID).
		Int("index", index).
		Bool("created", created).
		Msg("Ad stored")

	return nil
}

// Decode maps an imported item to an Ad with its dedup key
func Decode(businessID string, item models.ImportItem) (*models.Ad, error) {
	var value any
	if err := json.Unmarshal(item, &value); err != nil {
		return nil, fmt.Errorf("invalid ad record: %w", err)
	}

	var rec record
	if _, ok := value.(map[string]any); ok {
		if err := json.Unmarshal(item, &rec); err != nil {
			return nil, fmt.Errorf("invalid ad record: %w", err)
		}
	}

	sourceID := strings.TrimSpace(rec.ID)
	if sourceID == "" {
		sourceID = strings.TrimSpace(rec.ArchiveID)
	}
	body := rec.Body
	if body == "" {
		body = rec.BodyAlt
	}
	text := NormalizeCreative(body)

	identity := sourceID
	if identity == "" {
		identity = text
	}
	if identity == "" {
		// Opaque item: key on its canonical JSON (object keys sorted)
		canonical, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("invalid ad record: %w", err)
		}
		identity = "raw:" + string(canonical)
	}

	return &models.Ad{
		ID:           DedupKey(businessID, identity),
		BusinessID:   businessID,
		SourceID:     sourceID,
		PageName:     strings.TrimSpace(rec.PageName),
		CreativeBody: body,
		CreativeText: text,
		SnapshotURL:  strings.TrimSpace(rec.SnapshotURL),
		Raw:          append([]byte(nil), item...),
	}, nil
}

// DedupKey derives the deterministic storage key of an ad within a business
func DedupKey(businessID, identity string) string {
	return uuid.NewSHA1(adNamespace, []byte(businessID+"|"+identity)).String()
}
