package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"strings"
)

var (
	MessageSuccessUploadImage    = "image uploaded successfully"
	MessageSuccessProcessReceipt = "receipt processed"

	MessageFailedUploadImage    = "failed to upload image"
	MessageFailedProcessReceipt = "failed to process receipt"
	MessageStorageUnavailable   = "storage service not available"

	ErrInvalidFileType     = errors.New("invalid file type")
	ErrFileRequired        = errors.New("file is required")
	ErrStorageUnavailable  = errors.New("storage service not available")
	ErrImageURLRequired    = errors.New("imageUrl is required")
	ErrNoTextExtracted     = errors.New("no text could be extracted from the image")
	ErrDailyReceiptLimit   = errors.New("daily receipt limit reached")
	ErrReceiptParsing      = errors.New("failed to parse receipt text")
	ErrGeminiEmptyResponse = errors.New("gemini returned no candidates")
)

const (
	DefaultMerchant = "Unknown"
	DefaultTotal    = "0.00"

	ReceiptProcessedEvent = "receipt-processed"
)

// AllowedImageTypes are the content types accepted by the upload endpoint.
var AllowedImageTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp"}

// Amount is a decimal rendered as a string. It accepts JSON strings and numbers.
type Amount string

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Amount(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*a = Amount(n.String())
	return nil
}

func (a Amount) String() string {
	return string(a)
}

type (
	ReceiptItem struct {
		Name  string `json:"name"`
		Price Amount `json:"price"`
	}

	// ReceiptData is the structured content extracted from a receipt image.
	ReceiptData struct {
		Merchant string        `json:"merchant"`
		Items    []ReceiptItem `json:"items"`
		Total    Amount        `json:"total"`
	}

	UploadImageRequest struct {
		UserID string                `validate:"required"`
		Image  *multipart.FileHeader `validate:"required"`
	}

	UploadImageResponse struct {
		ImageURL string `json:"imageUrl"`
		UserID   string `json:"userId"`
	}

	ProcessReceiptRequest struct {
		ImageURL string `json:"imageUrl" validate:"required"`
		UserID   string `json:"userId" validate:"required"`
	}

	ProcessingSummary struct {
		TextExtracted      bool   `json:"text_extracted"`
		MerchantFound      bool   `json:"merchant_found"`
		ItemsParsed        int    `json:"items_parsed"`
		TotalAmount        string `json:"total_amount"`
		StoredSuccessfully bool   `json:"stored_successfully"`
		EventPublished     bool   `json:"event_published"`
	}

	ProcessReceiptResponse struct {
		Status            string            `json:"status"`
		ReceiptID         string            `json:"receiptId"`
		Data              ReceiptData       `json:"data"`
		ProcessingSummary ProcessingSummary `json:"processing_summary"`
	}

	ReceiptProcessedMessage struct {
		ReceiptID string `json:"receiptId"`
		UserID    string `json:"userId"`
		Merchant  string `json:"merchant"`
		Total     string `json:"total"`
		Timestamp string `json:"timestamp"`
	}
)

// Normalize fills parse defaults for missing merchant and total.
func (d ReceiptData) Normalize() ReceiptData {
	if strings.TrimSpace(d.Merchant) == "" {
		d.Merchant = DefaultMerchant
	}
	if strings.TrimSpace(string(d.Total)) == "" {
		d.Total = DefaultTotal
	}
	if d.Items == nil {
		d.Items = []ReceiptItem{}
	}
	return d
}
