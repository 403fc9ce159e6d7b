package port

import "context"

// ReportArchive определяет интерфейс для выгрузки документов передачи смены.
// Документы только записываются, обратно консоль их не читает.
type ReportArchive interface {
	// PutObject загружает объект и возвращает URL для чтения.
	PutObject(ctx context.Context, key, contentType string, body []byte) (string, error)
}
