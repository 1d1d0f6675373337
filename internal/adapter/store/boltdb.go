package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"docqa/internal/artifact"
	"docqa/internal/domain"
	"docqa/internal/index"
)

var (
	bucketManifest = []byte("manifest")
	bucketPassages = []byte("passages")
	bucketVectors  = []byte("vectors")
	keyManifest    = []byte("current")
)

// BoltStore persists one artifact generation in a bbolt file: the manifest,
// the passages and the vectors, each in its own bucket keyed by position.
// Save replaces the previous generation wholesale inside one transaction.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketManifest, bucketPassages, bucketVectors} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

type passageMeta struct {
	Text    string `json:"text"`
	Source  string `json:"source"`
	Ordinal int    `json:"ordinal"`
}

// Save writes the whole artifact in a single transaction, so a crash leaves
// either the old generation or the new one on disk, never a blend.
func (s *BoltStore) Save(a *artifact.Artifact) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketPassages, bucketVectors} {
			if err := tx.DeleteBucket(name); err != nil {
				return fmt.Errorf("failed to reset bucket %s: %w", name, err)
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return fmt.Errorf("failed to recreate bucket %s: %w", name, err)
			}
		}

		passages := tx.Bucket(bucketPassages)
		vectors := tx.Bucket(bucketVectors)
		vecs := a.Index.Vectors()

		for i, p := range a.Passages() {
			meta := passageMeta{Text: p.Text, Source: p.Source, Ordinal: p.Ordinal}
			data, err := json.Marshal(meta)
			if err != nil {
				return err
			}
			if err := passages.Put(positionKey(i), data); err != nil {
				return err
			}

			vecData, err := json.Marshal(vecs[i])
			if err != nil {
				return err
			}
			if err := vectors.Put(positionKey(i), vecData); err != nil {
				return err
			}
		}

		manifestData, err := json.Marshal(a.Manifest)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketManifest).Put(keyManifest, manifestData)
	})
}

// Load rebuilds the persisted artifact, or returns (nil, nil) when no
// generation has been saved yet.
func (s *BoltStore) Load() (*artifact.Artifact, error) {
	var manifest domain.Manifest
	var passages []domain.Passage
	var vectors [][]float32

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketManifest).Get(keyManifest)
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &manifest); err != nil {
			return fmt.Errorf("corrupt manifest: %w", err)
		}

		passages = make([]domain.Passage, 0, manifest.Passages)
		vectors = make([][]float32, 0, manifest.Passages)

		passageBucket := tx.Bucket(bucketPassages)
		vectorBucket := tx.Bucket(bucketVectors)

		for i := 0; i < manifest.Passages; i++ {
			key := positionKey(i)

			metaData := passageBucket.Get(key)
			if metaData == nil {
				return fmt.Errorf("%w: passage %d missing from store", domain.ErrIntegrity, i)
			}
			var meta passageMeta
			if err := json.Unmarshal(metaData, &meta); err != nil {
				return fmt.Errorf("corrupt passage %d: %w", i, err)
			}
			passages = append(passages, domain.Passage{
				ID:      i,
				Text:    meta.Text,
				Source:  meta.Source,
				Ordinal: meta.Ordinal,
			})

			vecData := vectorBucket.Get(key)
			if vecData == nil {
				return fmt.Errorf("%w: vector %d missing from store", domain.ErrIntegrity, i)
			}
			var vec []float32
			if err := json.Unmarshal(vecData, &vec); err != nil {
				return fmt.Errorf("corrupt vector %d: %w", i, err)
			}
			vectors = append(vectors, vec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if manifest.Passages == 0 && manifest.Generation == 0 {
		return nil, nil
	}

	idx, err := index.Build(manifest.Dimension, vectors)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild index from store: %w", err)
	}
	return artifact.New(manifest, idx, passages), nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func positionKey(i int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(i))
	return key
}
