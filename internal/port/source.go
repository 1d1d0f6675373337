package port

import "docqa/internal/domain"

// DocumentSource supplies the corpus to the artifact builder.
type DocumentSource interface {
	// List returns all corpus documents with their modification times.
	List() ([]domain.Document, error)

	// Read returns the raw text of one document by id.
	Read(id string) (string, error)
}
