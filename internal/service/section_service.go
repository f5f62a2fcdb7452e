package service

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/Fussballversager/data-pipeline-buddy/internal/domain"
	"github.com/Fussballversager/data-pipeline-buddy/internal/repository"
	"github.com/Fussballversager/data-pipeline-buddy/internal/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrSectionNotFound       = errors.New("section not found")
	ErrInvalidSectionIndex   = errors.New("section index must be between 0 and 8")
	ErrSketchNotAllowed      = errors.New("only exercise sections 1-7 carry a sketch")
	ErrStorageUnavailable    = errors.New("sketch storage is not configured")
	ErrUploadURLError        = errors.New("failed to generate upload URL")
	ErrInvalidSketchType     = errors.New("invalid or missing image content type")
	ErrSketchKeyMismatch     = errors.New("object key does not belong to this section")
	ErrUploadMetadataMissing = errors.New("upload metadata is missing")
)

// SectionInput is the editable content of a section. Lists are
// semicolon-delimited.
type SectionInput struct {
	Phase          string
	GameForm       string
	Duration       *int
	Organisation   string
	Procedure      string
	CoachingPoints string
	Variants       string
}

// UploadURLResponse structure for returning URL and object key
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"` // Reported back on confirm
}

// --- Service Interface ---

// SectionService edits day sections and attaches sketches to them.
type SectionService interface {
	UpsertSection(ctx context.Context, userID, dayID primitive.ObjectID, index int, in SectionInput) (*domain.Section, error)

	// Upload Process
	RequestSketchUpload(ctx context.Context, userID, dayID primitive.ObjectID, index int, contentType string) (*UploadURLResponse, error)
	ConfirmSketch(ctx context.Context, userID, dayID primitive.ObjectID, index int, objectKey, templateVersion string) (*domain.SectionMedia, error)
}

// --- Service Implementation ---

type sectionService struct {
	days        repository.DayPlanRepository
	sections    repository.SectionRepository
	media       repository.SectionMediaRepository
	fileStorage storage.FileStorage
}

// NewSectionService creates a new instance of sectionService. fileStorage
// may be nil, which disables sketch uploads.
func NewSectionService(stores repository.Stores, fileStorage storage.FileStorage) SectionService {
	return &sectionService{
		days:        stores.Days,
		sections:    stores.Sections,
		media:       stores.SectionMedia,
		fileStorage: fileStorage,
	}
}

func (s *sectionService) ownDay(ctx context.Context, userID, dayID primitive.ObjectID) error {
	if _, err := s.days.GetByID(ctx, dayID, userID); err != nil {
		return mapGetError(err)
	}
	return nil
}

func (s *sectionService) UpsertSection(ctx context.Context, userID, dayID primitive.ObjectID, index int, in SectionInput) (*domain.Section, error) {
	if !domain.ValidSectionIndex(index) {
		return nil, ErrInvalidSectionIndex
	}
	if err := s.ownDay(ctx, userID, dayID); err != nil {
		return nil, err
	}

	section := &domain.Section{
		UserID:         userID,
		DayPlanID:      dayID,
		Index:          index,
		Phase:          in.Phase,
		GameForm:       in.GameForm,
		Duration:       in.Duration,
		Organisation:   in.Organisation,
		Procedure:      in.Procedure,
		CoachingPoints: in.CoachingPoints,
		Variants:       in.Variants,
	}
	if err := s.sections.Upsert(ctx, section); err != nil {
		return nil, err
	}
	return section, nil
}

// sketchSection returns the section a sketch may be attached to.
func (s *sectionService) sketchSection(ctx context.Context, userID, dayID primitive.ObjectID, index int) (*domain.Section, error) {
	if !domain.ValidSectionIndex(index) {
		return nil, ErrInvalidSectionIndex
	}
	if !domain.CarriesSketch(index) {
		return nil, ErrSketchNotAllowed
	}
	if s.fileStorage == nil {
		return nil, ErrStorageUnavailable
	}
	if err := s.ownDay(ctx, userID, dayID); err != nil {
		return nil, err
	}

	sections, err := s.sections.ListByDay(ctx, dayID)
	if err != nil {
		return nil, err
	}
	for i := range sections {
		if sections[i].Index == index {
			return &sections[i], nil
		}
	}
	return nil, ErrSectionNotFound
}

// === Upload Process ===

// RequestSketchUpload generates a pre-signed URL for uploading a sketch image.
func (s *sectionService) RequestSketchUpload(ctx context.Context, userID, dayID primitive.ObjectID, index int, contentType string) (*UploadURLResponse, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrInvalidSketchType
	}
	section, err := s.sketchSection(ctx, userID, dayID, index)
	if err != nil {
		return nil, err
	}

	extension := strings.TrimPrefix(contentType, "image/")
	if i := strings.IndexByte(extension, '+'); i > 0 {
		extension = extension[:i] // image/svg+xml -> svg
	}
	objectKey := storage.SketchObjectKey(userID, section.ID, extension)

	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, 0)
	if err != nil {
		return nil, ErrUploadURLError
	}
	return &UploadURLResponse{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}

// ConfirmSketch records the uploaded sketch. It is called after the client
// finished the PUT to the pre-signed URL.
func (s *sectionService) ConfirmSketch(ctx context.Context, userID, dayID primitive.ObjectID, index int, objectKey, templateVersion string) (*domain.SectionMedia, error) {
	if objectKey == "" {
		return nil, ErrUploadMetadataMissing
	}
	section, err := s.sketchSection(ctx, userID, dayID, index)
	if err != nil {
		return nil, err
	}

	prefix := path.Join("sketches", userID.Hex(), section.ID.Hex()) + "/"
	if !strings.HasPrefix(objectKey, prefix) {
		return nil, ErrSketchKeyMismatch
	}

	media := &domain.SectionMedia{
		SectionID:       section.ID,
		ObjectKey:       objectKey,
		TemplateVersion: templateVersion,
		Status:          domain.MediaStatusOK,
	}
	if _, err := s.media.Create(ctx, media); err != nil {
		return nil, err
	}
	return media, nil
}
