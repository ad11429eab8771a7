package ingest

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/akolanti/GoIngest/internal/config"
	"github.com/akolanti/GoIngest/internal/domain/commonModels"
	"github.com/dslipak/pdf"
)

// extractPDF emits one unit per page with text, keeping the 0-based page index.
// Blank pages are dropped here and only here, tabular rows are kept as is.
func (p *Pipeline) extractPDF(data []byte) (units []commonModels.RawUnit, err error) {
	defer func() {
		if r := recover(); r != nil {
			units = nil
			err = parseErrorf("pdf reader panicked: %v", r)
		}
	}()

	f, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		p.logger.Error("failed opening of pdf file", "error", err)
		return nil, wrapParse("opening pdf", err)
	}

	numPages := f.NumPage()
	p.logger.Debug("extractPDF", "number of pages", numPages)
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			p.logger.Debug("extractPDF", "page value is null", i-1)
			continue
		}

		content, err := protectExtract(page, p.pageTimeout)
		if err != nil {
			p.logger.Error("Error parsing page content", "page", i-1, "error", err)
			return nil, wrapParse(fmt.Sprintf("page %d", i-1), err)
		}
		if strings.TrimSpace(content) == "" {
			continue
		}

		units = append(units, commonModels.RawUnit{
			Position: i - 1,
			Content:  content,
		})
	}
	return units, nil
}

// protectExtract bounds text extraction of a single page. A hung extraction
// goroutine is abandoned.
func protectExtract(page pdf.Page, timeout time.Duration) (string, error) {
	type result struct {
		content string
		err     error
	}
	if timeout <= 0 {
		timeout = config.PageExtractTimeout
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resChan <- result{"", fmt.Errorf("extraction panicked: %v", r)}
			}
		}()
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(timeout):
		return "", fmt.Errorf("page extraction timed out after %s", timeout)
	}
}
