package automation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shopflow/backend/internal/domain/fulfillment"
	"github.com/shopflow/backend/internal/domain/marketplace"
	"github.com/shopflow/backend/internal/domain/shared"
	"github.com/shopflow/backend/internal/domain/shop"
)

// ratingTemplates maps each star value to its reply text. Replies are
// buyer-facing; low stars get a recovery message, high stars a thank-you.
var ratingTemplates = map[int]string{
	1: "Mohon maaf atas pengalaman yang kurang menyenangkan kak 🙏 Silakan hubungi kami via chat, kami bantu selesaikan masalahnya sampai tuntas.",
	2: "Terima kasih atas masukannya kak 🙏 Kami ingin memperbaiki pengalaman kakak, mohon hubungi kami via chat ya.",
	3: "Terima kasih sudah berbelanja kak! Kalau ada kendala dengan produknya, jangan ragu chat kami ya 😊",
	4: "Terima kasih banyak kak! 😊 Senang produknya bermanfaat. Ditunggu order berikutnya ya!",
	5: "Wah, terima kasih banyak kak! ⭐⭐⭐⭐⭐ Senang sekali produknya sesuai harapan. Sampai jumpa di order berikutnya! 🎉",
}

// fallbackStar is the template used for star values outside 1..5
const fallbackStar = 5

// RatingResponder sends exactly one templated reply per rating comment.
// Redelivered rating webhooks are deduplicated on the comment ID; the
// upstream's duplicate-reply-as-success behavior covers the race window
// between the send and the dedupe mark.
type RatingResponder struct {
	audits    fulfillment.AuditLogRepository
	client    marketplace.Client
	refresher *TokenRefresher
	dedupe    shared.IdempotencyStore
	dedupeTTL time.Duration
	logger    *zap.Logger
}

// NewRatingResponder creates a new RatingResponder
func NewRatingResponder(
	audits fulfillment.AuditLogRepository,
	client marketplace.Client,
	refresher *TokenRefresher,
	dedupe shared.IdempotencyStore,
	dedupeTTL time.Duration,
	logger *zap.Logger,
) *RatingResponder {
	if dedupeTTL <= 0 {
		dedupeTTL = shared.DefaultIdempotencyConfig().TTL
	}
	return &RatingResponder{
		audits:    audits,
		client:    client,
		refresher: refresher,
		dedupe:    dedupe,
		dedupeTTL: dedupeTTL,
		logger:    logger,
	}
}

// TemplateForStar returns the reply text for a star value and whether the
// out-of-range fallback was applied.
func TemplateForStar(star int) (string, bool) {
	if text, ok := ratingTemplates[star]; ok {
		return text, false
	}
	return ratingTemplates[fallbackStar], true
}

// Respond replies to one rating comment. Duplicate deliveries for the same
// comment ID are acknowledged without a second send.
func (r *RatingResponder) Respond(ctx context.Context, sh *shop.Shop, commentID int64, star int) error {
	logger := r.logger.With(
		zap.Int64("marketplace_shop_id", sh.MarketplaceShopID),
		zap.Int64("comment_id", commentID),
		zap.Int("rating_star", star),
	)

	key := fmt.Sprintf("rating:%d:%d", sh.MarketplaceShopID, commentID)
	processed, err := r.dedupe.IsProcessed(ctx, key)
	if err != nil {
		logger.Warn("Rating dedupe check failed, proceeding", zap.Error(err))
	} else if processed {
		logger.Debug("Rating already replied, skipping")
		return nil
	}

	text, fellBack := TemplateForStar(star)
	if fellBack {
		logger.Warn("Rating star out of range, using 5-star template")
	}

	err = r.refresher.WithRetry(ctx, sh, func(creds marketplace.Credentials) error {
		return r.client.ReplyToRating(ctx, creds, commentID, text)
	})
	if err != nil {
		r.appendAudit(ctx, fulfillment.NewAuditLog(&sh.ID, fulfillment.LogActionError).
			WithPayloads(map[string]any{"comment_id": commentID, "rating_star": star}, nil).
			WithError(err).
			WithStatus(502))
		logger.Error("Rating reply failed", zap.Error(err))
		return err
	}

	if _, err := r.dedupe.MarkProcessed(ctx, key, r.dedupeTTL); err != nil {
		logger.Warn("Failed to mark rating as replied", zap.Error(err))
	}

	r.appendAudit(ctx, fulfillment.NewAuditLog(&sh.ID, fulfillment.LogActionRatingReplied).
		WithPayloads(map[string]any{"comment_id": commentID, "rating_star": star}, nil).
		WithStatus(200))

	logger.Info("Rating replied")
	return nil
}

func (r *RatingResponder) appendAudit(ctx context.Context, entry *fulfillment.AuditLog) {
	if err := r.audits.Append(ctx, entry); err != nil {
		r.logger.Warn("Failed to append audit log",
			zap.String("action", string(entry.Action)),
			zap.Error(err),
		)
	}
}
