package ocr

import (
	"context"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
)

// recoverImage is the single-page Tier-2-equivalent path for image uploads:
// no text layer exists, so the image goes straight to vision or tesseract.
func (e *Extractor) recoverImage(ctx context.Context, doc entity.Document) (Recovered, error) {
	if e.pages != nil {
		png, err := PreparePNG(doc.Content)
		if err != nil {
			return Recovered{}, common.NewAppError("IMAGE_DECODE",
				"could not decode image", common.ErrDocumentUnreadable)
		}
		txt, err := e.pages.ReadPage(ctx, png)
		if err != nil {
			return Recovered{}, common.WrapError(common.ErrTextRecoveryFailed, err.Error())
		}
		return Recovered{Text: txt, Tier: TierImageVision, Pages: 1}, nil
	}

	path, cleanup, err := e.spool(doc, doc.Ext())
	if err != nil {
		return Recovered{}, common.WrapError(err, "spool image")
	}
	defer cleanup()

	txt, err := e.tesseractOCR(ctx, path)
	if err != nil {
		return Recovered{}, common.WrapError(common.ErrTextRecoveryFailed, err.Error())
	}
	return Recovered{Text: txt, Tier: TierImageOCR, Pages: 1}, nil
}
