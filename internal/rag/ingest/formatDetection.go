package ingest

import (
	"strings"

	"github.com/akolanti/GoIngest/internal/domain/commonModels"
	"github.com/gabriel-vasile/mimetype"
)

// DetectFormat picks the document type from the last "." segment of the
// file name, case-insensitively. Names without a "." are unsupported.
func DetectFormat(fileName string) commonModels.DocType {
	i := strings.LastIndex(fileName, ".")
	if i < 0 {
		return commonModels.Unsupported
	}
	switch strings.ToLower(fileName[i+1:]) {
	case "csv":
		return commonModels.CSV
	case "xlsx":
		return commonModels.XLSX
	case "pdf":
		return commonModels.PDF
	default:
		return commonModels.Unsupported
	}
}

var expectedMIME = map[commonModels.DocType]string{
	commonModels.CSV:  "text/plain",
	commonModels.XLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	commonModels.PDF:  "application/pdf",
}

// SniffMismatch reports the detected MIME type when the content does not look
// like docType. It never changes how the file is handled.
func SniffMismatch(docType commonModels.DocType, data []byte) (string, bool) {
	want, ok := expectedMIME[docType]
	if !ok || len(data) == 0 {
		return "", false
	}
	detected := mimetype.Detect(data)
	for m := detected; m != nil; m = m.Parent() {
		if m.Is(want) {
			return detected.String(), false
		}
	}
	return detected.String(), true
}
