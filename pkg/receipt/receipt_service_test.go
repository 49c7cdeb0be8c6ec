package receipt

import (
	"context"
	"errors"
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"stash-backend/domain"
	"stash-backend/entities"
	"stash-backend/internal/testutil"
	"stash-backend/internal/utils/genai"
	"stash-backend/internal/utils/vision"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakeS3 struct {
	uploaded   []string
	downloaded []string
	uploadErr  error
}

func (f *fakeS3) UploadFile(ctx context.Context, objectKey string, file *multipart.FileHeader, allowedTypes ...string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploaded = append(f.uploaded, objectKey)
	return objectKey, nil
}

func (f *fakeS3) DownloadFile(ctx context.Context, objectKey string) ([]byte, string, error) {
	f.downloaded = append(f.downloaded, objectKey)
	return []byte("image-bytes"), "image/png", nil
}

func (f *fakeS3) DeleteFile(ctx context.Context, objectKey string) error { return nil }

func (f *fakeS3) GetPublicLinkKey(objectKey string) string {
	return "https://bucket.test/" + objectKey
}

func (f *fakeS3) GetObjectKeyFromLink(link string) (string, bool) {
	key, ok := strings.CutPrefix(link, "https://bucket.test/")
	return key, ok
}

type recordingExtractor struct {
	text   string
	err    error
	images []vision.Image
}

func (r *recordingExtractor) ExtractText(ctx context.Context, image vision.Image) (string, error) {
	r.images = append(r.images, image)
	return r.text, r.err
}

type recordingPublisher struct {
	err      error
	topics   []string
	payloads []any
}

func (p *recordingPublisher) Publish(ctx context.Context, topic string, payload any) error {
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return p.err
}

const parsedReceipt = "```json\n{\"merchant\": \"City Grocery\", \"items\": [{\"name\": \"Milk\", \"price\": 3.5}, {\"name\": \"Bread\", \"price\": \"2.25\"}], \"total\": \"$5.75\"}\n```"

type fixture struct {
	svc       *receiptService
	repo      ReceiptRepository
	s3        *fakeS3
	extractor *recordingExtractor
	publisher *recordingPublisher
}

func newFixture(t *testing.T, reply string, cfg ServiceConfig) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t, &entities.Receipt{})
	f := &fixture{
		repo:      NewReceiptRepository(db),
		s3:        &fakeS3{},
		extractor: &recordingExtractor{text: "CITY GROCERY\nMILK 3.50\nBREAD 2.25\nTOTAL 5.75"},
		publisher: &recordingPublisher{},
	}
	f.svc = NewReceiptService(f.repo, f.s3, f.extractor, NewLLMReceiptParser(genai.NewStaticGenerator(reply)), f.publisher, cfg).(*receiptService)
	return f
}

func imageHeader(name, contentType string) *multipart.FileHeader {
	return &multipart.FileHeader{
		Filename: name,
		Header:   textproto.MIMEHeader{"Content-Type": {contentType}},
	}
}

func TestUploadImage(t *testing.T) {
	f := newFixture(t, parsedReceipt, ServiceConfig{})

	resp, err := f.svc.UploadImage(context.Background(), domain.UploadImageRequest{UserID: "user-1", Image: imageHeader("receipt.PNG", "image/png")})
	require.NoError(t, err)
	require.Equal(t, "user-1", resp.UserID)
	require.Len(t, f.s3.uploaded, 1)
	require.True(t, strings.HasPrefix(f.s3.uploaded[0], "receipts/user-1/"))
	require.True(t, strings.HasSuffix(f.s3.uploaded[0], ".png"))
	require.Equal(t, "https://bucket.test/"+f.s3.uploaded[0], resp.ImageURL)

	_, err = f.svc.UploadImage(context.Background(), domain.UploadImageRequest{UserID: "user-1", Image: imageHeader("scan", "image/webp")})
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(f.s3.uploaded[1], ".jpg"))
}

func TestUploadImage_Rejections(t *testing.T) {
	f := newFixture(t, parsedReceipt, ServiceConfig{})
	ctx := context.Background()

	_, err := f.svc.UploadImage(ctx, domain.UploadImageRequest{UserID: "user-1", Image: imageHeader("r.pdf", "application/pdf")})
	require.ErrorIs(t, err, domain.ErrInvalidFileType)

	_, err = f.svc.UploadImage(ctx, domain.UploadImageRequest{Image: imageHeader("r.png", "image/png")})
	require.ErrorIs(t, err, domain.ErrUserIDRequired)

	f.svc.s3 = nil
	_, err = f.svc.UploadImage(ctx, domain.UploadImageRequest{UserID: "user-1", Image: imageHeader("r.png", "image/png")})
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestProcessReceipt(t *testing.T) {
	f := newFixture(t, parsedReceipt, ServiceConfig{})
	ctx := context.Background()

	resp, err := f.svc.ProcessReceipt(ctx, domain.ProcessReceiptRequest{ImageURL: "https://bucket.test/receipts/user-1/a.png", UserID: "user-1"})
	require.NoError(t, err)
	require.Equal(t, "receipt processed", resp.Status)
	require.Equal(t, "City Grocery", resp.Data.Merchant)
	require.Equal(t, domain.Amount("$5.75"), resp.Data.Total)
	require.Equal(t, domain.Amount("3.5"), resp.Data.Items[0].Price)
	require.Equal(t, domain.ProcessingSummary{
		TextExtracted:      true,
		MerchantFound:      true,
		ItemsParsed:        2,
		TotalAmount:        "$5.75",
		StoredSuccessfully: true,
		EventPublished:     true,
	}, resp.ProcessingSummary)

	// Own-bucket images are downloaded and sent inline.
	require.Equal(t, []string{"receipts/user-1/a.png"}, f.s3.downloaded)
	require.Equal(t, []byte("image-bytes"), f.extractor.images[0].Content)

	stored, err := f.repo.GetReceiptByID(ctx, resp.ReceiptID)
	require.NoError(t, err)
	require.True(t, stored.Processed)
	require.Len(t, stored.Items, 2)
	require.Equal(t, resp.Data, ToReceiptData(stored))

	require.Equal(t, []string{domain.ReceiptProcessedEvent}, f.publisher.topics)
	msg := f.publisher.payloads[0].(domain.ReceiptProcessedMessage)
	require.Equal(t, resp.ReceiptID, msg.ReceiptID)

	count, err := f.svc.CountReceipts(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestProcessReceipt_ExternalURLAndDefaults(t *testing.T) {
	f := newFixture(t, `{"items": null}`, ServiceConfig{})

	resp, err := f.svc.ProcessReceipt(context.Background(), domain.ProcessReceiptRequest{ImageURL: "https://cdn.example.com/r.jpg", UserID: "user-1"})
	require.NoError(t, err)
	require.Equal(t, domain.DefaultMerchant, resp.Data.Merchant)
	require.Equal(t, domain.Amount(domain.DefaultTotal), resp.Data.Total)
	require.Empty(t, resp.Data.Items)
	require.False(t, resp.ProcessingSummary.MerchantFound)
	require.Empty(t, f.s3.downloaded)
	require.Equal(t, "https://cdn.example.com/r.jpg", f.extractor.images[0].URI)
}

func TestProcessReceipt_PublishFailureIsReported(t *testing.T) {
	f := newFixture(t, parsedReceipt, ServiceConfig{})
	f.publisher.err = errors.New("broker down")

	resp, err := f.svc.ProcessReceipt(context.Background(), domain.ProcessReceiptRequest{ImageURL: "https://x/r.jpg", UserID: "user-1"})
	require.NoError(t, err)
	require.True(t, resp.ProcessingSummary.StoredSuccessfully)
	require.False(t, resp.ProcessingSummary.EventPublished)
}

func TestProcessReceipt_Failures(t *testing.T) {
	ctx := context.Background()
	req := domain.ProcessReceiptRequest{ImageURL: "https://x/r.jpg", UserID: "user-1"}

	f := newFixture(t, parsedReceipt, ServiceConfig{})
	f.extractor.err = domain.NewUpstreamError("vision", errors.New("quota"))
	_, err := f.svc.ProcessReceipt(ctx, req)
	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)

	f.extractor.err = nil
	f.extractor.text = "   "
	_, err = f.svc.ProcessReceipt(ctx, req)
	require.ErrorIs(t, err, domain.ErrNoTextExtracted)

	f = newFixture(t, "I could not read that receipt", ServiceConfig{})
	_, err = f.svc.ProcessReceipt(ctx, req)
	require.ErrorIs(t, err, domain.ErrReceiptParsing)

	count, err := f.svc.CountReceipts(ctx, "user-1")
	require.NoError(t, err)
	require.Zero(t, count)

	_, err = f.svc.ProcessReceipt(ctx, domain.ProcessReceiptRequest{UserID: "user-1"})
	require.ErrorIs(t, err, domain.ErrImageURLRequired)
}

func TestProcessReceipt_DailyLimit(t *testing.T) {
	f := newFixture(t, parsedReceipt, ServiceConfig{MaxDailyReceipts: 2})
	f.svc.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	req := domain.ProcessReceiptRequest{ImageURL: "https://x/r.jpg", UserID: "user-1"}

	for i := 0; i < 2; i++ {
		_, err := f.svc.ProcessReceipt(ctx, req)
		require.NoError(t, err)
	}
	_, err := f.svc.ProcessReceipt(ctx, req)
	require.ErrorIs(t, err, domain.ErrDailyReceiptLimit)

	f.svc.now = func() time.Time { return time.Date(2024, 5, 2, 0, 0, 1, 0, time.UTC) }
	_, err = f.svc.ProcessReceipt(ctx, req)
	require.NoError(t, err)
}
