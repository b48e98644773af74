package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/peakhr/console/internal/core/domain/resource"
	"github.com/peakhr/console/internal/core/ports"
	"github.com/sirupsen/logrus"
)

// MutationService applies record mutations against the upstream and
// reconciles the synchronizer afterwards. Local state is only ever touched
// after the server confirms success; on failure the service recovers true
// state with a forced reload instead of undoing a speculative change.
type MutationService struct {
	desc     resource.Descriptor
	api      ports.UpstreamClient
	cache    ports.ListCache
	list     ports.ListSynchronizer
	confirm  ports.Confirmer
	notifier ports.Notifier
	sessions ports.SessionService
	logger   *logrus.Logger
}

func NewMutationService(
	desc resource.Descriptor,
	api ports.UpstreamClient,
	cache ports.ListCache,
	list ports.ListSynchronizer,
	confirm ports.Confirmer,
	notifier ports.Notifier,
	sessions ports.SessionService,
	logger *logrus.Logger,
) *MutationService {
	return &MutationService{
		desc:     desc,
		api:      api,
		cache:    cache,
		list:     list,
		confirm:  confirm,
		notifier: notifier,
		sessions: sessions,
		logger:   logger,
	}
}

// Create posts the draft. The new record's position and the counters are
// server-computed, so the cache is evicted and the list force-reloaded rather
// than guessed locally.
func (s *MutationService) Create(ctx context.Context, draft json.RawMessage) error {
	if err := s.api.Create(ctx, s.desc, draft); err != nil {
		return s.fail(ctx, err, "create")
	}
	if s.notifier != nil {
		s.notifier.Success("Created successfully")
	}
	s.cache.Evict(ctx, s.desc.Key)
	return s.list.Reload(ctx)
}

// Update mirrors Create: sort order, counts and stats may all change.
func (s *MutationService) Update(ctx context.Context, id string, draft json.RawMessage) error {
	if err := s.api.Update(ctx, s.desc, id, draft); err != nil {
		return s.fail(ctx, err, "update")
	}
	if s.notifier != nil {
		s.notifier.Success("Updated successfully")
	}
	s.cache.Evict(ctx, s.desc.Key)
	return s.list.Reload(ctx)
}

// ToggleStatus flips the active flag after confirmation and patches the row
// in place on success; only the affected row shows a spinner.
func (s *MutationService) ToggleStatus(ctx context.Context, id string, currentActive bool) error {
	verb := "activate"
	if currentActive {
		verb = "deactivate"
	}
	if s.confirm != nil && !s.confirm.Confirm(ctx, fmt.Sprintf("Are you sure you want to %s this item?", verb)) {
		return nil
	}

	s.list.SetActionLoading(id)
	defer s.list.ClearActionLoading()

	if err := s.api.SetStatus(ctx, s.desc, id, !currentActive); err != nil {
		return s.recover(ctx, err, "status toggle")
	}

	s.list.ApplyPatch(ctx, id, func(e *resource.Entity) {
		e.SetActive(!currentActive)
	})
	if s.notifier != nil {
		s.notifier.Success(fmt.Sprintf("Item %sd", verb))
	}
	return nil
}

// Delete removes the record after confirmation, with an optimistic local
// removal on success.
func (s *MutationService) Delete(ctx context.Context, id string) error {
	if s.confirm != nil && !s.confirm.Confirm(ctx, "Are you sure you want to delete this item? This cannot be undone.") {
		return nil
	}

	s.list.SetActionLoading(id)
	defer s.list.ClearActionLoading()

	if err := s.api.Delete(ctx, s.desc, id); err != nil {
		return s.recover(ctx, err, "delete")
	}

	s.list.RemoveLocal(ctx, id)
	if s.notifier != nil {
		s.notifier.Success("Item deleted")
	}
	return nil
}

// Bulk runs one action over the selection. Bulk operations change counts and
// ordering in ways too complex to patch locally, so success always evicts and
// force-reloads; failure leaves state untouched.
func (s *MutationService) Bulk(ctx context.Context, action string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if !s.desc.AllowsBulk(action) {
		return fmt.Errorf("bulk action %q is not supported for %s", action, s.desc.Path)
	}
	if s.confirm != nil && !s.confirm.Confirm(ctx, fmt.Sprintf("Apply %q to %d item(s)?", action, len(ids))) {
		return nil
	}

	s.list.SetBulkLoading(true)
	defer s.list.SetBulkLoading(false)

	if err := s.api.Bulk(ctx, s.desc, action, ids); err != nil {
		return s.fail(ctx, err, "bulk "+action)
	}

	s.list.ClearSelection()
	s.cache.Evict(ctx, s.desc.Key)
	if s.notifier != nil {
		s.notifier.Success(fmt.Sprintf("Applied %q to %d item(s)", action, len(ids)))
	}
	return s.list.Reload(ctx)
}

// fail converts an upstream error into its user-facing form without touching
// list state.
func (s *MutationService) fail(ctx context.Context, err error, op string) error {
	if errors.Is(err, ports.ErrUnauthorized) {
		s.sessions.Expire(ctx)
		return err
	}
	if s.logger != nil {
		s.logger.WithField("resource", s.desc.Path).WithError(err).Errorf("%s failed", op)
	}
	var verr *ports.ValidationError
	if errors.As(err, &verr) {
		// Structured field errors go to the user verbatim; the form stays
		// open with the draft intact.
		if s.notifier != nil {
			s.notifier.Error(verr.Error())
		}
		return err
	}
	if s.notifier != nil {
		s.notifier.Error("Operation failed. Please try again.")
	}
	return err
}

// recover is fail plus a forced reload, used where an optimistic patch would
// otherwise have been applied.
func (s *MutationService) recover(ctx context.Context, err error, op string) error {
	if errors.Is(err, ports.ErrUnauthorized) {
		s.sessions.Expire(ctx)
		return err
	}
	if s.logger != nil {
		s.logger.WithField("resource", s.desc.Path).WithError(err).Errorf("%s failed", op)
	}
	if s.notifier != nil {
		s.notifier.Error("Operation failed. Refreshing the list.")
	}
	_ = s.list.Reload(ctx)
	return err
}

var _ ports.MutationCoordinator = (*MutationService)(nil)
