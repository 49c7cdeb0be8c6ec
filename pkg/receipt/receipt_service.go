package receipt

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"stash-backend/domain"
	"stash-backend/entities"
	"stash-backend/internal/utils/events"
	"stash-backend/internal/utils/storage"
	"stash-backend/internal/utils/vision"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type (
	ReceiptService interface {
		UploadImage(ctx context.Context, req domain.UploadImageRequest) (domain.UploadImageResponse, error)
		ProcessReceipt(ctx context.Context, req domain.ProcessReceiptRequest) (domain.ProcessReceiptResponse, error)
		CountReceipts(ctx context.Context, userID string) (int, error)
	}

	ServiceConfig struct {
		MaxDailyReceipts int
		EventsTopic      string
		CallTimeout      time.Duration
	}

	receiptService struct {
		receiptRepository ReceiptRepository
		s3                storage.AwsS3
		extractor         vision.TextExtractor
		parser            ReceiptParser
		publisher         events.Publisher
		config            ServiceConfig
		now               func() time.Time
	}
)

// NewReceiptService wires the ingestion pipeline. s3 may be nil when object storage is not configured.
func NewReceiptService(
	receiptRepository ReceiptRepository,
	s3 storage.AwsS3,
	extractor vision.TextExtractor,
	parser ReceiptParser,
	publisher events.Publisher,
	config ServiceConfig,
) ReceiptService {
	if publisher == nil {
		publisher = events.NewNopPublisher()
	}
	if config.EventsTopic == "" {
		config.EventsTopic = domain.ReceiptProcessedEvent
	}
	if config.CallTimeout <= 0 {
		config.CallTimeout = 30 * time.Second
	}
	return &receiptService{
		receiptRepository: receiptRepository,
		s3:                s3,
		extractor:         extractor,
		parser:            parser,
		publisher:         publisher,
		config:            config,
		now:               time.Now,
	}
}

func (s *receiptService) UploadImage(ctx context.Context, req domain.UploadImageRequest) (domain.UploadImageResponse, error) {
	if req.UserID == "" {
		return domain.UploadImageResponse{}, domain.ErrUserIDRequired
	}
	if req.Image == nil {
		return domain.UploadImageResponse{}, domain.ErrFileRequired
	}
	if s.s3 == nil {
		return domain.UploadImageResponse{}, domain.ErrStorageUnavailable
	}

	contentType := req.Image.Header.Get("Content-Type")
	if !slices.Contains(storage.AllowImage, contentType) {
		return domain.UploadImageResponse{}, fmt.Errorf("%w: %q", domain.ErrInvalidFileType, contentType)
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(req.Image.Filename)), ".")
	if ext == "" {
		ext = "jpg"
	}
	objectKey := fmt.Sprintf("receipts/%s/%s.%s", req.UserID, uuid.New().String(), ext)

	callCtx, cancel := context.WithTimeout(ctx, s.config.CallTimeout)
	defer cancel()

	objectKey, err := s.s3.UploadFile(callCtx, objectKey, req.Image, storage.AllowImage...)
	if err != nil {
		return domain.UploadImageResponse{}, err
	}

	zap.L().Info("receipt image uploaded",
		zap.String("user_id", req.UserID),
		zap.String("object_key", objectKey),
	)

	return domain.UploadImageResponse{
		ImageURL: s.s3.GetPublicLinkKey(objectKey),
		UserID:   req.UserID,
	}, nil
}

// ProcessReceipt extracts text from the image, parses it, stores the receipt and publishes a receipt-processed event.
func (s *receiptService) ProcessReceipt(ctx context.Context, req domain.ProcessReceiptRequest) (domain.ProcessReceiptResponse, error) {
	if req.UserID == "" {
		return domain.ProcessReceiptResponse{}, domain.ErrUserIDRequired
	}
	if req.ImageURL == "" {
		return domain.ProcessReceiptResponse{}, domain.ErrImageURLRequired
	}

	if err := s.checkDailyLimit(ctx, req.UserID); err != nil {
		return domain.ProcessReceiptResponse{}, err
	}

	text, err := s.extractText(ctx, req.ImageURL)
	if err != nil {
		return domain.ProcessReceiptResponse{}, err
	}
	if strings.TrimSpace(text) == "" {
		return domain.ProcessReceiptResponse{}, domain.ErrNoTextExtracted
	}

	parseCtx, cancel := context.WithTimeout(ctx, s.config.CallTimeout)
	defer cancel()

	data, err := s.parser.Parse(parseCtx, text)
	if err != nil {
		return domain.ProcessReceiptResponse{}, err
	}
	data = data.Normalize()

	now := s.now().UTC()
	receipt := &entities.Receipt{
		ID:        uuid.New(),
		UserID:    req.UserID,
		Merchant:  data.Merchant,
		Items:     toEntityItems(data.Items),
		Total:     data.Total.String(),
		ImageURL:  req.ImageURL,
		RawText:   text,
		Processed: true,
		Timestamp: entities.Timestamp{CreatedAt: now, UpdatedAt: now},
	}
	if err := s.receiptRepository.CreateReceipt(ctx, receipt); err != nil {
		return domain.ProcessReceiptResponse{}, fmt.Errorf("store receipt: %w", err)
	}

	published := s.publish(ctx, receipt)

	return domain.ProcessReceiptResponse{
		Status:    domain.WorkflowStatusProcessed,
		ReceiptID: receipt.ID.String(),
		Data:      data,
		ProcessingSummary: domain.ProcessingSummary{
			TextExtracted:      true,
			MerchantFound:      data.Merchant != domain.DefaultMerchant,
			ItemsParsed:        len(data.Items),
			TotalAmount:        data.Total.String(),
			StoredSuccessfully: true,
			EventPublished:     published,
		},
	}, nil
}

func (s *receiptService) CountReceipts(ctx context.Context, userID string) (int, error) {
	count, err := s.receiptRepository.CountUserReceipts(ctx, userID)
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (s *receiptService) checkDailyLimit(ctx context.Context, userID string) error {
	if s.config.MaxDailyReceipts <= 0 {
		return nil
	}
	now := s.now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	count, err := s.receiptRepository.CountUserReceiptsSince(ctx, userID, startOfDay)
	if err != nil {
		return err
	}
	if count >= int64(s.config.MaxDailyReceipts) {
		return domain.ErrDailyReceiptLimit
	}
	return nil
}

// extractText sends images from our own bucket inline and anything else by URI.
func (s *receiptService) extractText(ctx context.Context, imageURL string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.config.CallTimeout)
	defer cancel()

	image := vision.Image{URI: imageURL}
	if s.s3 != nil {
		if key, ok := s.s3.GetObjectKeyFromLink(imageURL); ok {
			data, _, err := s.s3.DownloadFile(callCtx, key)
			if err != nil {
				return "", err
			}
			image = vision.Image{Content: data}
		}
	}

	return s.extractor.ExtractText(callCtx, image)
}

func (s *receiptService) publish(ctx context.Context, receipt *entities.Receipt) bool {
	callCtx, cancel := context.WithTimeout(ctx, s.config.CallTimeout)
	defer cancel()

	msg := domain.ReceiptProcessedMessage{
		ReceiptID: receipt.ID.String(),
		UserID:    receipt.UserID,
		Merchant:  receipt.Merchant,
		Total:     receipt.Total,
		Timestamp: receipt.CreatedAt.UTC().Format(time.RFC3339),
	}
	if err := s.publisher.Publish(callCtx, s.config.EventsTopic, msg); err != nil {
		zap.L().Warn("failed to publish receipt event",
			zap.String("receipt_id", msg.ReceiptID),
			zap.String("topic", s.config.EventsTopic),
			zap.Error(err),
		)
		return false
	}
	return true
}

func toEntityItems(items []domain.ReceiptItem) []entities.ReceiptItem {
	result := make([]entities.ReceiptItem, 0, len(items))
	for _, item := range items {
		result = append(result, entities.ReceiptItem{Name: item.Name, Price: item.Price.String()})
	}
	return result
}

// ToReceiptData converts a stored receipt back to its parsed form.
func ToReceiptData(receipt *entities.Receipt) domain.ReceiptData {
	items := make([]domain.ReceiptItem, 0, len(receipt.Items))
	for _, item := range receipt.Items {
		items = append(items, domain.ReceiptItem{Name: item.Name, Price: domain.Amount(item.Price)})
	}
	return domain.ReceiptData{
		Merchant: receipt.Merchant,
		Items:    items,
		Total:    domain.Amount(receipt.Total),
	}
}
