package catalog

import (
	"context"

	"github.com/roach88/appstore/internal/index"
	"github.com/roach88/appstore/internal/ir"
)

// CreateApp writes a new app and indexes it globally, under each founding
// editor, and under its publisher.
func (s *Service) CreateApp(ctx context.Context, caller ir.AgentID, in CreateAppInput) (AppEntity, error) {
	if err := requireCaller(caller); err != nil {
		return AppEntity{}, err
	}
	if err := s.validator.Validate(ir.KindApp, in.App); err != nil {
		return AppEntity{}, err
	}
	rev := ir.Revision[App]{Content: in.App}
	seed(in.Common, &rev)

	ent, err := s.apps.Create(ctx, caller, rev)
	if err != nil {
		return AppEntity{}, err
	}
	s.place(ctx, ent.ID, appRelations(ent.Content))
	return ent, nil
}

// GetApp resolves the current revision of an app.
func (s *Service) GetApp(ctx context.Context, in GetEntityInput) (AppEntity, error) {
	if err := requireHash("id", in.ID); err != nil {
		return AppEntity{}, err
	}
	return s.apps.Get(ctx, in.ID)
}

// UpdateApp applies in.Properties to the current revision.
func (s *Service) UpdateApp(ctx context.Context, caller ir.AgentID, in UpdateAppInput) (AppEntity, error) {
	if err := requireCaller(caller); err != nil {
		return AppEntity{}, err
	}
	if err := requireHash("base", in.Base); err != nil {
		return AppEntity{}, err
	}
	p := in.Properties
	return s.apps.Update(ctx, caller, in.Base, func(rev *ir.Revision[App]) error {
		c := &rev.Content
		if p.Title != nil {
			c.Title = *p.Title
		}
		if p.Subtitle != nil {
			c.Subtitle = *p.Subtitle
		}
		if p.Description != nil {
			c.Description = *p.Description
		}
		if p.IconSrc != nil {
			c.IconSrc = *p.IconSrc
		}
		if p.Source != nil {
			c.Source = *p.Source
		}
		if p.Hashes != nil {
			c.Hashes = *p.Hashes
		}
		if p.Changelog != nil {
			c.Changelog = p.Changelog
		}
		patch(p.Properties, rev)
		return s.validator.Validate(ir.KindApp, *c)
	})
}

// DeprecateApp marks an app deprecated.
func (s *Service) DeprecateApp(ctx context.Context, caller ir.AgentID, in DeprecateInput) (AppEntity, error) {
	if err := requireCaller(caller); err != nil {
		return AppEntity{}, err
	}
	notice, err := deprecation(in)
	if err != nil {
		return AppEntity{}, err
	}
	return s.apps.Deprecate(ctx, caller, in.Base, notice)
}

// UndeprecateApp clears an app's deprecation.
func (s *Service) UndeprecateApp(ctx context.Context, caller ir.AgentID, in UndeprecateInput) (AppEntity, error) {
	if err := requireCaller(caller); err != nil {
		return AppEntity{}, err
	}
	if err := requireHash("base", in.Base); err != nil {
		return AppEntity{}, err
	}
	return s.apps.Undeprecate(ctx, caller, in.Base)
}

// AppsForAgent lists the apps agent was a founding editor of.
func (s *Service) AppsForAgent(ctx context.Context, in GetForAgentInput) ([]AppEntity, error) {
	if err := requireAgent(in.ForAgent); err != nil {
		return nil, err
	}
	return collect(ctx, s, s.apps, index.ForAgent(in.ForAgent, ir.KindApp), nil)
}

// MyApps lists the caller's apps.
func (s *Service) MyApps(ctx context.Context, caller ir.AgentID) ([]AppEntity, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	return s.AppsForAgent(ctx, GetForAgentInput{ForAgent: caller})
}

// AppsForPublisher lists the apps that reference a publisher.
func (s *Service) AppsForPublisher(ctx context.Context, in GetForPublisherInput) ([]AppEntity, error) {
	if err := requireHash("for_publisher", in.ForPublisher); err != nil {
		return nil, err
	}
	return collect(ctx, s, s.apps, index.ForParent(ir.KindPublisher, in.ForPublisher, ir.KindApp), nil)
}

// AllApps lists every app, deprecated ones included.
func (s *Service) AllApps(ctx context.Context) ([]AppEntity, error) {
	return collect(ctx, s, s.apps, index.Global(ir.KindApp), nil)
}

// NonDeprecatedApps lists every app that is not deprecated.
func (s *Service) NonDeprecatedApps(ctx context.Context) ([]AppEntity, error) {
	return collect(ctx, s, s.apps, index.Global(ir.KindApp), notDeprecated[App])
}

// AppHistory returns every visible revision of an app, oldest first.
func (s *Service) AppHistory(ctx context.Context, in GetEntityInput) ([]AppVersion, error) {
	if err := requireHash("id", in.ID); err != nil {
		return nil, err
	}
	return s.apps.History(ctx, in.ID)
}
