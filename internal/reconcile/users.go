package reconcile

import (
	"context"

	"github.com/angelmondragon/catalogsync/pkg/db/models"
	pkgerrors "github.com/angelmondragon/catalogsync/pkg/errors"
	"github.com/google/uuid"
)

func (r *run) reconcileUsers(ctx context.Context, batch Batch) (EntityReport, error) {
	var rep EntityReport
	ctx = r.logg.WithEntity(ctx, string(EntityUsers))
	r.malformed(ctx, EntityUsers, &rep, batch.Malformed[EntityUsers])

	for _, in := range batch.Users {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		recordCtx := r.logg.WithRecordKey(ctx, in.Email)
		o, err := r.reconcileUser(recordCtx, in)
		r.record(recordCtx, EntityUsers, &rep, o, err)
	}
	return rep, nil
}

// reconcileUser upserts by email. A valid input id is honored only when the
// user is inserted; existing users keep their store id.
func (r *run) reconcileUser(ctx context.Context, in UserInput) (outcome, error) {
	in.Email = NormalizeEmail(in.Email)
	if err := checkKey(in); err != nil {
		return outcomeSkipped, err
	}
	existing, err := lookup(r.stores.Users.FindByEmail(ctx, in.Email))
	if err != nil {
		return outcomeSkipped, err
	}
	existing = overlay(r, EntityUsers, in.Email, existing)

	hash, err := r.credentialHash(in, existing)
	if err != nil {
		return outcomeSkipped, err
	}
	status, policy := userStatus(in.Status)
	if policy == PolicyDefault {
		r.fallback(ctx, EntityUsers, "status", policy)
	}
	role, policy := userRole(in.Role)
	if policy == PolicyDefault {
		r.fallback(ctx, EntityUsers, "role", policy)
	}

	var stored models.User
	if existing != nil {
		stored = *existing
	}
	createdAt, _ := timestamp(in.CreatedAt, stored.CreatedAt, existing != nil, r.now)
	updatedAt, _ := timestamp(in.UpdatedAt, stored.UpdatedAt, existing != nil, createdAt)

	desired := &models.User{
		Email:        in.Email,
		PasswordHash: hash,
		FullName:     in.FullName,
		Status:       status,
		Role:         role,
		AvatarURL:    in.AvatarURL,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
	if existing != nil {
		desired.ID = existing.ID
		if sameUser(existing, desired) {
			r.rememberUser(existing.ID)
			return outcomeUnchanged, nil
		}
		if in.UpdatedAt == nil {
			desired.UpdatedAt = r.now
		}
	} else if id, ok := ResolveID(in.ID); ok {
		desired.ID = id
		if r.dryRun {
			if err := r.checkUserID(ctx, id, in.Email); err != nil {
				return outcomeSkipped, err
			}
		}
	} else if in.ID != "" {
		r.fallback(ctx, EntityUsers, "id", PolicyDefault)
	}

	saved, err := write(ctx, r.dryRun, desired, &desired.ID, r.stores.Users.Upsert)
	if err != nil {
		return outcomeSkipped, err
	}
	r.stage(EntityUsers, saved.Email, saved)
	r.stage(EntityUsers, userIDKey(saved.ID), saved)
	r.rememberUser(saved.ID)
	return changed(existing != nil), nil
}

func userIDKey(id uuid.UUID) string {
	return "id:" + id.String()
}

// checkUserID reports the conflict a commit would hit when id already
// belongs to a user with another email.
func (r *run) checkUserID(ctx context.Context, id uuid.UUID, email string) error {
	owner, err := lookup(r.stores.Users.FindByID(ctx, id))
	if err != nil {
		return err
	}
	owner = overlay(r, EntityUsers, userIDKey(id), owner)
	if owner != nil && owner.Email != email {
		return pkgerrors.New(pkgerrors.CodeConflict, "user id already belongs to another email").
			WithDetails(map[string]any{"id": id.String()})
	}
	return nil
}

// credentialHash keeps a supplied hash, else hashes the plain password or the
// fallback credential. A stored hash that already verifies is kept so
// re-runs do not rotate salts.
func (r *run) credentialHash(in UserInput, existing *models.User) (string, error) {
	if in.PasswordHash != "" {
		return in.PasswordHash, nil
	}
	credential := in.Password
	if credential == "" {
		credential = r.fallbackCredential
	}
	if existing != nil && existing.PasswordHash != "" {
		if ok, err := r.hasher.Verify(credential, existing.PasswordHash); err == nil && ok {
			return existing.PasswordHash, nil
		}
	}
	hash, err := r.hasher.Hash(credential)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash credential")
	}
	return hash, nil
}

func sameUser(a, b *models.User) bool {
	return a.PasswordHash == b.PasswordHash &&
		a.FullName == b.FullName &&
		a.Status == b.Status &&
		a.Role == b.Role &&
		a.AvatarURL == b.AvatarURL &&
		a.CreatedAt.Equal(b.CreatedAt) &&
		a.UpdatedAt.Equal(b.UpdatedAt)
}
