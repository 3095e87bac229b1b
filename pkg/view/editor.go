package view

import (
	"context"
	"fmt"
	"slices"

	"photon/pkg/client"
	"photon/pkg/optimistic"
	"photon/pkg/scope"

	"go.uber.org/zap"
)

// AccountState is the editable part of the viewer's profile.
type AccountState struct {
	Bio         string
	Gender      string
	AccountType string
}

func accountStateOf(p client.Profile) AccountState {
	return AccountState{Bio: p.Bio, Gender: p.Gender, AccountType: p.AccountType}
}

// ProfileEditor edits the signed-in user's own profile.
type ProfileEditor struct {
	base

	profile *client.Profile
	draft   AccountState
	err     error
}

func NewProfileEditor(ctx context.Context, deps Deps) *ProfileEditor {
	e := &ProfileEditor{}
	e.init(ctx, deps, "profile_editor")
	return e
}

func (e *ProfileEditor) Load() *scope.Task {
	return scope.Fetch(e.scope,
		func(ctx context.Context) (*client.Profile, error) {
			return e.api.GetProfile(ctx, e.me.Username)
		},
		func(p *client.Profile) {
			e.profile = p
			e.draft = accountStateOf(*p)
			e.err = nil
		},
		func(err error) {
			e.err = err
			e.logger.Warn("failed to load profile", zap.String("username", e.me.Username), zap.Error(err))
		},
	)
}

// Profile returns a copy of the last known profile, or nil before Load completes.
func (e *ProfileEditor) Profile() *client.Profile {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.profile == nil {
		return nil
	}
	p := *e.profile
	return &p
}

func (e *ProfileEditor) Draft() AccountState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft
}

func (e *ProfileEditor) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

func (e *ProfileEditor) SetBio(bio string) {
	e.mu.Lock()
	e.draft.Bio = bio
	e.mu.Unlock()
}

func (e *ProfileEditor) SetGender(gender string) error {
	if !slices.Contains(client.Genders, gender) {
		return fmt.Errorf("unknown gender %q", gender)
	}
	e.mu.Lock()
	e.draft.Gender = gender
	e.mu.Unlock()
	return nil
}

// SetAccountType accepts one of client.AccountTypes, or "" to clear it.
func (e *ProfileEditor) SetAccountType(accountType string) error {
	if accountType != "" && !slices.Contains(client.AccountTypes, accountType) {
		return fmt.Errorf("unknown account type %q", accountType)
	}
	e.mu.Lock()
	e.draft.AccountType = accountType
	e.mu.Unlock()
	return nil
}

// Changes returns the fields of the draft that differ from the loaded profile.
func (e *ProfileEditor) Changes() client.ProfileUpdate {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.changes()
}

func (e *ProfileEditor) changes() client.ProfileUpdate {
	var upd client.ProfileUpdate
	if e.profile == nil {
		return upd
	}
	if e.draft.Bio != e.profile.Bio {
		bio := truncate(e.draft.Bio, client.BioMaxLength)
		upd.Bio = &bio
	}
	if e.draft.Gender != e.profile.Gender {
		gender := e.draft.Gender
		upd.Gender = &gender
	}
	if e.draft.AccountType != e.profile.AccountType {
		accountType := e.draft.AccountType
		upd.AccountType = &accountType
	}
	return upd
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Submit applies the changed fields to the profile and saves them. The
// server's full profile replaces the local one on success.
func (e *ProfileEditor) Submit() (*optimistic.Pending, error) {
	var (
		upd    client.ProfileUpdate
		prev   client.Profile
		server *client.Profile
	)
	return e.runner.Submit(&optimistic.Func{
		MutationKey: "profile:" + e.me.Username,
		Operation:   "update_profile",
		Validate: func() error {
			if e.profile == nil {
				return ErrNotLoaded
			}
			upd = e.changes()
			if upd.Empty() {
				return ErrNoChanges
			}
			return nil
		},
		Apply: func() {
			prev = *e.profile
			next := prev
			if upd.Bio != nil {
				next.Bio = *upd.Bio
			}
			if upd.Gender != nil {
				next.Gender = *upd.Gender
			}
			if upd.AccountType != nil {
				next.AccountType = *upd.AccountType
			}
			e.profile = &next
			e.draft = accountStateOf(next)
		},
		Rollback: func() {
			p := prev
			e.profile = &p
		},
		Persist: func(ctx context.Context) error {
			p, err := e.api.UpdateProfile(ctx, e.me.Username, upd)
			server = p
			return err
		},
		Confirm: func() {
			if server == nil {
				return
			}
			e.profile = server
			e.draft = accountStateOf(*server)
		},
	})
}

func (e *ProfileEditor) HandleEvent(ev client.Event) {
	e.handle(ev, func(ev client.Event) error {
		if ev.Type != client.EventProfileUpdated {
			return nil
		}
		var p client.Profile
		if err := ev.Decode(&p); err != nil {
			return err
		}
		if p.User.ID != e.me.ID || e.runner.InFlight("profile:"+e.me.Username) {
			return nil
		}
		e.profile = &p
		e.draft = accountStateOf(p)
		return nil
	})
}
