package walk

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/paseoapp/walk-api/internal/repository"
	"github.com/paseoapp/walk-api/internal/service/schedule"
	apperrors "github.com/paseoapp/walk-api/pkg/errors"
	"github.com/paseoapp/walk-api/pkg/logger"
	"github.com/paseoapp/walk-api/pkg/metrics"
	"github.com/paseoapp/walk-api/pkg/validator"
)

const (
	DefaultCancellationWindow = 30 * time.Minute
	MaxCommentLength          = 250
	MaxRatingValue            = 5
)

var (
	ErrInvalidWalkType       = apperrors.Validation("Tipo de paseo inválido")
	ErrPetRequired           = apperrors.Validation("Debe indicar al menos una mascota")
	ErrPetNotFound           = apperrors.NotFound("Mascota no encontrada")
	ErrPetNotOwned           = apperrors.Forbidden("La mascota no pertenece al cliente")
	ErrDaysRequired          = apperrors.Validation("Debe indicar al menos un día")
	ErrFixedNeedsTwoDays     = apperrors.Validation("Un paseo fijo requiere al menos 2 días")
	ErrSporadicNeedsOneDay   = apperrors.Validation("Un paseo esporádico requiere exactamente 1 día")
	ErrInvalidStartTime      = apperrors.Validation("Hora de inicio inválida, use el formato HH:MM")
	ErrCommentsTooLong       = apperrors.Validation("Los comentarios no pueden superar 250 caracteres")
	ErrInvalidStatus         = apperrors.Validation("Estado inválido")
	ErrWalkNotFound          = apperrors.NotFound("Paseo no encontrado")
	ErrTransitionNotAllowed  = apperrors.Validation("Transición de estado no permitida")
	ErrCancellationWindow    = apperrors.Validation("No se puede cancelar con menos de 30 minutos de anticipación")
	ErrMissingRatingComment  = apperrors.Validation("Comentario obligatorio para rating")
	ErrInvalidRatingValue    = apperrors.Validation("La calificación debe estar entre 0 y 5")
	ErrRatingWithoutWalker   = apperrors.Validation("El paseo no tiene paseador asignado")
	ErrRatingExists          = apperrors.Conflict("El paseo ya fue calificado")
	ErrWalkChanged           = apperrors.Conflict("El paseo fue modificado, intente nuevamente")
	ErrForbidden             = apperrors.Forbidden("No autorizado para esta operación")
	ErrOutsideZone           = apperrors.Forbidden("El paseo está fuera de la zona del paseador")
)

type Config struct {
	Location           *time.Location
	CancellationWindow time.Duration
	// ZoneFilter limits the open walks a walker sees to pets in the walker's zone.
	ZoneFilter   bool
	ZoneCacheTTL time.Duration
	Now          func() time.Time
}

type Service struct {
	store     repository.Store
	validator validator.Validator
	metrics   *metrics.Metrics
	log       *logger.Logger

	loc        *time.Location
	window     time.Duration
	zoneFilter bool
	zones      *cache.Cache
	now        func() time.Time
}

func NewService(store repository.Store, cfg Config, m *metrics.Metrics, log *logger.Logger) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.CancellationWindow == 0 {
		cfg.CancellationWindow = DefaultCancellationWindow
	}
	if cfg.ZoneCacheTTL == 0 {
		cfg.ZoneCacheTTL = 5 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if m == nil {
		m = metrics.NewNop()
	}
	if log == nil {
		log = logger.Nop()
	}

	v := validator.New()
	// Registration only fails on an empty tag.
	_ = v.Register("weekday", func(s string) bool {
		_, err := schedule.ParseDay(s)
		return err == nil
	})

	return &Service{
		store:      store,
		validator:  v,
		metrics:    m,
		log:        log,
		loc:        cfg.Location,
		window:     cfg.CancellationWindow,
		zoneFilter: cfg.ZoneFilter,
		zones:      cache.New(cfg.ZoneCacheTTL, 2*cfg.ZoneCacheTTL),
		now:        cfg.Now,
	}
}

// walkerZone returns the cached zone of a walker, empty when unknown.
func (s *Service) walkerZone(ctx context.Context, walkerID uuid.UUID) (string, error) {
	key := walkerID.String()
	if zone, ok := s.zones.Get(key); ok {
		return zone.(string), nil
	}

	profile, err := s.store.WalkerProfiles().Get(ctx, walkerID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.zones.SetDefault(key, "")
		return "", nil
	case err != nil:
		return "", apperrors.Internal(err)
	}

	s.zones.SetDefault(key, profile.Zone)
	return profile.Zone, nil
}
