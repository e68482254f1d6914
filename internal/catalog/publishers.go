package catalog

import (
	"context"

	"github.com/roach88/appstore/internal/index"
	"github.com/roach88/appstore/internal/ir"
)

// CreatePublisher writes a new publisher and indexes it globally and
// under each founding editor.
func (s *Service) CreatePublisher(ctx context.Context, caller ir.AgentID, in CreatePublisherInput) (PublisherEntity, error) {
	if err := requireCaller(caller); err != nil {
		return PublisherEntity{}, err
	}
	if err := s.validator.Validate(ir.KindPublisher, in.Publisher); err != nil {
		return PublisherEntity{}, err
	}
	rev := ir.Revision[Publisher]{Content: in.Publisher}
	seed(in.Common, &rev)

	ent, err := s.publishers.Create(ctx, caller, rev)
	if err != nil {
		return PublisherEntity{}, err
	}
	s.place(ctx, ent.ID, publisherRelations(ent.Content))
	return ent, nil
}

// GetPublisher resolves the current revision of a publisher.
func (s *Service) GetPublisher(ctx context.Context, in GetEntityInput) (PublisherEntity, error) {
	if err := requireHash("id", in.ID); err != nil {
		return PublisherEntity{}, err
	}
	return s.publishers.Get(ctx, in.ID)
}

// UpdatePublisher applies in.Properties to the current revision.
func (s *Service) UpdatePublisher(ctx context.Context, caller ir.AgentID, in UpdatePublisherInput) (PublisherEntity, error) {
	if err := requireCaller(caller); err != nil {
		return PublisherEntity{}, err
	}
	if err := requireHash("base", in.Base); err != nil {
		return PublisherEntity{}, err
	}
	p := in.Properties
	return s.publishers.Update(ctx, caller, in.Base, func(rev *ir.Revision[Publisher]) error {
		c := &rev.Content
		if p.Name != nil {
			c.Name = *p.Name
		}
		if p.Location != nil {
			c.Location = *p.Location
		}
		if p.Website != nil {
			c.Website = *p.Website
		}
		if p.IconSrc != nil {
			c.IconSrc = *p.IconSrc
		}
		if p.Description != nil {
			c.Description = p.Description
		}
		if p.Email != nil {
			c.Email = p.Email
		}
		patch(p.Properties, rev)
		return s.validator.Validate(ir.KindPublisher, *c)
	})
}

// DeprecatePublisher marks a publisher deprecated.
func (s *Service) DeprecatePublisher(ctx context.Context, caller ir.AgentID, in DeprecateInput) (PublisherEntity, error) {
	if err := requireCaller(caller); err != nil {
		return PublisherEntity{}, err
	}
	notice, err := deprecation(in)
	if err != nil {
		return PublisherEntity{}, err
	}
	return s.publishers.Deprecate(ctx, caller, in.Base, notice)
}

// UndeprecatePublisher clears a publisher's deprecation.
func (s *Service) UndeprecatePublisher(ctx context.Context, caller ir.AgentID, in UndeprecateInput) (PublisherEntity, error) {
	if err := requireCaller(caller); err != nil {
		return PublisherEntity{}, err
	}
	if err := requireHash("base", in.Base); err != nil {
		return PublisherEntity{}, err
	}
	return s.publishers.Undeprecate(ctx, caller, in.Base)
}

// PublishersForAgent lists the publishers agent was a founding editor of.
func (s *Service) PublishersForAgent(ctx context.Context, in GetForAgentInput) ([]PublisherEntity, error) {
	if err := requireAgent(in.ForAgent); err != nil {
		return nil, err
	}
	return collect(ctx, s, s.publishers, index.ForAgent(in.ForAgent, ir.KindPublisher), nil)
}

// MyPublishers lists the caller's publishers.
func (s *Service) MyPublishers(ctx context.Context, caller ir.AgentID) ([]PublisherEntity, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	return s.PublishersForAgent(ctx, GetForAgentInput{ForAgent: caller})
}

// AllPublishers lists every publisher, deprecated ones included.
func (s *Service) AllPublishers(ctx context.Context) ([]PublisherEntity, error) {
	return collect(ctx, s, s.publishers, index.Global(ir.KindPublisher), nil)
}

// NonDeprecatedPublishers lists every publisher that is not deprecated.
func (s *Service) NonDeprecatedPublishers(ctx context.Context) ([]PublisherEntity, error) {
	return collect(ctx, s, s.publishers, index.Global(ir.KindPublisher), notDeprecated[Publisher])
}

// PublisherHistory returns every visible revision of a publisher, oldest
// first.
func (s *Service) PublisherHistory(ctx context.Context, in GetEntityInput) ([]PublisherVersion, error) {
	if err := requireHash("id", in.ID); err != nil {
		return nil, err
	}
	return s.publishers.History(ctx, in.ID)
}
