package api

import (
	"context"

	"github.com/roach88/appstore/internal/catalog"
	"github.com/roach88/appstore/internal/ir"
)

// catalogOperations builds the operation table over svc.
func catalogOperations(svc *catalog.Service) []Operation {
	return []Operation{
		// publisher
		{
			Name: "create_publisher", Composition: CompositionEntity, Caller: true,
			Summary: "Create a publisher; the caller becomes author and first editor",
			Handler: handle(svc.CreatePublisher),
		},
		{
			Name: "get_publisher", Composition: CompositionEntity,
			Summary: "Resolve the current revision of a publisher",
			Handler: handle(func(ctx context.Context, _ ir.AgentID, in catalog.GetEntityInput) (catalog.PublisherEntity, error) {
				return svc.GetPublisher(ctx, in)
			}),
		},
		{
			Name: "update_publisher", Composition: CompositionEntity, Caller: true,
			Summary: "Write a new revision of a publisher",
			Handler: handle(svc.UpdatePublisher),
		},
		{
			Name: "deprecate_publisher", Composition: CompositionEntity, Caller: true,
			Summary: "Mark a publisher deprecated",
			Handler: handle(svc.DeprecatePublisher),
		},
		{
			Name: "undeprecate_publisher", Composition: CompositionEntity, Caller: true,
			Summary: "Clear a publisher's deprecation",
			Handler: handle(svc.UndeprecatePublisher),
		},
		{
			Name: "get_publishers_for_agent", Composition: CompositionEntityCollection,
			Summary: "List publishers an agent founded or co-founded",
			Handler: handle(func(ctx context.Context, _ ir.AgentID, in catalog.GetForAgentInput) ([]catalog.PublisherEntity, error) {
				return svc.PublishersForAgent(ctx, in)
			}),
		},
		{
			Name: "get_my_publishers", Composition: CompositionEntityCollection, Caller: true,
			Summary: "List the caller's publishers",
			Handler: handle(func(ctx context.Context, caller ir.AgentID, _ none) ([]catalog.PublisherEntity, error) {
				return svc.MyPublishers(ctx, caller)
			}),
		},
		{
			Name: "get_all_publishers", Composition: CompositionEntityCollection,
			Summary: "List every publisher, deprecated ones included",
			Handler: handle(func(ctx context.Context, _ ir.AgentID, _ none) ([]catalog.PublisherEntity, error) {
				return svc.AllPublishers(ctx)
			}),
		},
		{
			Name: "get_non_deprecated_publishers", Composition: CompositionEntityCollection,
			Summary: "List publishers that are not deprecated",
			Handler: handle(func(ctx context.Context, _ ir.AgentID, _ none) ([]catalog.PublisherEntity, error) {
				return svc.NonDeprecatedPublishers(ctx)
			}),
		},
		{
			Name: "get_publisher_history", Composition: CompositionValue,
			Summary: "List every visible revision of a publisher, oldest first",
			Handler: handle(func(ctx context.Context, _ ir.AgentID, in catalog.GetEntityInput) ([]catalog.PublisherVersion, error) {
				return svc.PublisherHistory(ctx, in)
			}),
		},

		// app
		{
			Name: "create_app", Composition: CompositionEntity, Caller: true,
			Summary: "Create an app; the caller becomes author and first editor",
			Handler: handle(svc.CreateApp),
		},
		{
			Name: "get_app", Composition: CompositionEntity,
			Summary: "Resolve the current revision of an app",
			Handler: handle(func(ctx context.Context, _ ir.AgentID, in catalog.GetEntityInput) (catalog.AppEntity, error) {
				return svc.GetApp(ctx, in)
			}),
		},
		{
			Name: "update_app", Composition: CompositionEntity, Caller: true,
			Summary: "Write a new revision of an app",
			Handler: handle(svc.UpdateApp),
		},
		{
			Name: "deprecate_app", Composition: CompositionEntity, Caller: true,
			Summary: "Mark an app deprecated",
			Handler: handle(svc.DeprecateApp),
		},
		{
			Name: "undeprecate_app", Composition: CompositionEntity, Caller: true,
			Summary: "Clear an app's deprecation",
			Handler: handle(svc.UndeprecateApp),
		},
		{
			Name: "get_apps_for_agent", Composition: CompositionEntityCollection,
			Summary: "List apps an agent founded or co-founded",
			Handler: handle(func(ctx context.Context, _ ir.AgentID, in catalog.GetForAgentInput) ([]catalog.AppEntity, error) {
				return svc.AppsForAgent(ctx, in)
			}),
		},
		{
			Name: "get_my_apps", Composition: CompositionEntityCollection, Caller: true,
			Summary: "List the caller's apps",
			Handler: handle(func(ctx context.Context, caller ir.AgentID, _ none) ([]catalog.AppEntity, error) {
				return svc.MyApps(ctx, caller)
			}),
		},
		{
			Name: "get_apps_for_publisher", Composition: CompositionEntityCollection,
			Summary: "List apps that reference a publisher",
			Handler: handle(func(ctx context.Context, _ ir.AgentID, in catalog.GetForPublisherInput) ([]catalog.AppEntity, error) {
				return svc.AppsForPublisher(ctx, in)
			}),
		},
		{
			Name: "get_all_apps", Composition: CompositionEntityCollection,
			Summary: "List every app, deprecated ones included",
			Handler: handle(func(ctx context.Context, _ ir.AgentID, _ none) ([]catalog.AppEntity, error) {
				return svc.AllApps(ctx)
			}),
		},
		{
			Name: "get_non_deprecated_apps", Composition: CompositionEntityCollection,
			Summary: "List apps that are not deprecated",
			Handler: handle(func(ctx context.Context, _ ir.AgentID, _ none) ([]catalog.AppEntity, error) {
				return svc.NonDeprecatedApps(ctx)
			}),
		},
		{
			Name: "get_app_history", Composition: CompositionValue,
			Summary: "List every visible revision of an app, oldest first",
			Handler: handle(func(ctx context.Context, _ ir.AgentID, in catalog.GetEntityInput) ([]catalog.AppVersion, error) {
				return svc.AppHistory(ctx, in)
			}),
		},

		// misc
		{
			Name: "get_record", Composition: CompositionValue,
			Summary: "Fetch any stored record by its own hash",
			Handler: handle(func(ctx context.Context, _ ir.AgentID, in catalog.GetRecordInput) (catalog.StoredRecord, error) {
				return svc.Record(ctx, in)
			}),
		},
		{
			Name: "whoami", Composition: CompositionValue, Caller: true,
			Summary: "Return the caller's agent id",
			Handler: handle(func(_ context.Context, caller ir.AgentID, _ none) (catalog.Identity, error) {
				return svc.Whoami(caller)
			}),
		},
	}
}
