package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/untranslatable/internal/entity"
	"github.com/eslsoft/untranslatable/internal/repository"
)

// Broadcaster pushes events to every connected session without blocking.
type Broadcaster interface {
	Publish(event entity.Event)
}

// NewWordInput carries the fields of a word submission verbatim.
type NewWordInput struct {
	Word       string
	Language   string
	Definition string
	AudioURL   *string
}

// WordUsecase owns the in-memory dataset and its persistence.
type WordUsecase interface {
	Load(ctx context.Context)
	List(ctx context.Context) ([]entity.Word, error)
	Create(ctx context.Context, in NewWordInput) (*entity.Word, error)
	AddComment(ctx context.Context, id entity.WordID, text string) (*entity.Comment, error)
}

// wordUsecase serialises every read-modify-write of the dataset behind mu.
// Persistence failures are logged and never returned to callers.
type wordUsecase struct {
	mu      sync.Mutex
	store   repository.DocumentStore
	events  Broadcaster
	logger  *logrus.Logger
	now     func() time.Time
	dataset *entity.Dataset
	lastID  entity.WordID
}

func NewWordUsecase(store repository.DocumentStore, events Broadcaster, logger *logrus.Logger) WordUsecase {
	return &wordUsecase{
		store:   store,
		events:  events,
		logger:  logger,
		now:     time.Now,
		dataset: entity.NewDataset(),
	}
}

// Load reads the dataset at startup, falling back to an empty one.
func (u *wordUsecase) Load(ctx context.Context) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if ds := u.fetchLocked(ctx); ds != nil {
		u.dataset = ds
	} else {
		u.dataset = entity.NewDataset()
	}
	u.logger.WithField("words", len(u.dataset.Words)).Info("database ready")
}

// List always re-reads the store. When the read fails the stale in-memory copy is returned.
func (u *wordUsecase) List(ctx context.Context) ([]entity.Word, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.refreshLocked(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return u.dataset.Clone().Words, nil
}

func (u *wordUsecase) Create(ctx context.Context, in NewWordInput) (*entity.Word, error) {
	u.mu.Lock()
	word := entity.Word{
		ID:         u.nextIDLocked(),
		Word:       in.Word,
		Language:   in.Language,
		Definition: in.Definition,
		AudioURL:   normalizeAudioURL(in.AudioURL),
		Comments:   []entity.Comment{},
	}
	u.dataset.Words = append(u.dataset.Words, word)
	u.persistLocked(ctx)
	// published under the lock so members see events in dataset order
	u.events.Publish(entity.NewWordEvent(word.Clone()))
	u.mu.Unlock()

	return &word, nil
}

func (u *wordUsecase) AddComment(ctx context.Context, id entity.WordID, text string) (*entity.Comment, error) {
	u.mu.Lock()
	u.refreshLocked(ctx)
	idx := u.dataset.IndexOf(id)
	if idx < 0 {
		u.mu.Unlock()
		return nil, entity.ErrWordNotFound
	}
	comment := entity.NewComment(text, u.now())
	u.dataset.Words[idx].Comments = append(u.dataset.Words[idx].Comments, comment)
	u.persistLocked(ctx)
	u.events.Publish(entity.NewCommentEvent(id, comment))
	u.mu.Unlock()

	return &comment, nil
}

// fetchLocked returns nil for any failure or empty document, logging the cause.
func (u *wordUsecase) fetchLocked(ctx context.Context) *entity.Dataset {
	ds, err := u.store.Read(ctx)
	if err != nil {
		u.logger.WithError(err).Error("read dataset from document store")
		return nil
	}
	if ds == nil {
		u.logger.Warn("document store returned no data")
		return nil
	}
	return ds.Normalize()
}

func (u *wordUsecase) refreshLocked(ctx context.Context) {
	if ds := u.fetchLocked(ctx); ds != nil {
		u.dataset = ds
	}
}

// persistLocked outlives request cancellation so a dropped client cannot abort a write.
func (u *wordUsecase) persistLocked(ctx context.Context) {
	if err := u.store.Write(context.WithoutCancel(ctx), u.dataset); err != nil {
		u.logger.WithError(err).WithField("words", len(u.dataset.Words)).Error("persist dataset")
	}
}

// nextIDLocked returns the current unix milliseconds, bumped past every id already issued or stored.
func (u *wordUsecase) nextIDLocked() entity.WordID {
	id := entity.WordID(u.now().UnixMilli())
	floor := u.lastID
	if max := u.dataset.MaxID(); max > floor {
		floor = max
	}
	if id <= floor {
		id = floor + 1
	}
	u.lastID = id
	return id
}

func normalizeAudioURL(in *string) *string {
	if in == nil {
		return nil
	}
	if strings.TrimSpace(*in) == "" {
		return nil
	}
	out := *in
	return &out
}
