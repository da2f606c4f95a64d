package invites

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeInvalidTransition = "INVALID_INVITE_STATE_TRANSITION"
)

// ErrInvalidTransition is returned when a requested lifecycle change is not allowed.
var ErrInvalidTransition = goerrors.New("invalid invite state transition", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidTransition).
	WithCode(goerrors.CodeBadRequest)

// ActorRef identifies who/what triggered a transition.
type ActorRef struct {
	ID   string
	Type string
}

// ActorFromIdentity builds an ActorRef from the explicit sender identity.
func ActorFromIdentity(identity Identity) ActorRef {
	if identity == nil {
		return ActorRef{Type: "system"}
	}
	return ActorRef{ID: identity.ID(), Type: "user"}
}

// TransitionMetadata captures extra context for a transition.
type TransitionMetadata struct {
	Reason   string
	Metadata map[string]any
}

// TransitionContext is passed into hooks for additional processing.
type TransitionContext struct {
	Actor  ActorRef
	Invite *Invite
	From   LifecycleState
	To     LifecycleState
	Meta   TransitionMetadata
}

// TransitionHook is executed before or after a transition.
type TransitionHook func(ctx context.Context, tc TransitionContext) error

// TransitionHookPhase identifies whether a hook ran before or after persistence.
type TransitionHookPhase string

const (
	HookPhaseBefore TransitionHookPhase = "before_transition"
	HookPhaseAfter  TransitionHookPhase = "after_transition"
)

// TransitionOption customizes state machine behavior.
type TransitionOption func(*transitionOptions)

// LifecycleStore is the narrow persistence surface the state machine drives.
// The Invites repository satisfies it.
type LifecycleStore interface {
	Revoke(ctx context.Context, invite *Invite) error
	UpsertInvited(ctx context.Context, email string) (*Invite, bool, error)
}

// InviteStateMachine defines lifecycle operations for invites.
type InviteStateMachine interface {
	Transition(ctx context.Context, actor ActorRef, invite *Invite, target LifecycleState, opts ...TransitionOption) (*Invite, error)
	CurrentState(invite *Invite) LifecycleState
}

// HookErrorHandler handles errors surfaced by transition hooks.
type HookErrorHandler func(ctx context.Context, phase TransitionHookPhase, err error, tc TransitionContext) error

// StateMachineOption customizes state machine construction.
type StateMachineOption func(*inviteStateMachine)

// WithStateMachineClock injects a custom clock (useful for tests).
func WithStateMachineClock(clock func() time.Time) StateMachineOption {
	return func(sm *inviteStateMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

// WithStateMachineActivitySink sets the ActivitySink used to publish lifecycle events.
func WithStateMachineActivitySink(sink ActivitySink) StateMachineOption {
	return func(sm *inviteStateMachine) {
		sm.activitySink = normalizeActivitySink(sink)
	}
}

// WithStateMachineHookErrorHandler overrides how hook failures are propagated.
// Provide a handler to convert hook errors into domain-specific responses,
// otherwise the default handler panics with guidance for developers.
func WithStateMachineHookErrorHandler(handler HookErrorHandler) StateMachineOption {
	return func(sm *inviteStateMachine) {
		if handler != nil {
			sm.hookErrorHandler = handler
		}
	}
}

// WithStateMachineLogger overrides the logger used for sink failures.
func WithStateMachineLogger(logger Logger) StateMachineOption {
	return func(sm *inviteStateMachine) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// WithTransitionReason sets the human-readable reason for the transition.
func WithTransitionReason(reason string) TransitionOption {
	return func(opts *transitionOptions) {
		opts.metadata.Reason = reason
	}
}

// WithTransitionMetadata merges metadata into the transition context.
func WithTransitionMetadata(metadata map[string]any) TransitionOption {
	return func(opts *transitionOptions) {
		if len(metadata) == 0 {
			return
		}
		if opts.metadata.Metadata == nil {
			opts.metadata.Metadata = make(map[string]any, len(metadata))
		}
		for k, v := range metadata {
			opts.metadata.Metadata[k] = v
		}
	}
}

// WithForceTransition bypasses validation rules (use sparingly).
func WithForceTransition() TransitionOption {
	return func(opts *transitionOptions) {
		opts.force = true
	}
}

// WithBeforeTransitionHook adds a hook executed before the lifecycle update.
func WithBeforeTransitionHook(h TransitionHook) TransitionOption {
	return func(opts *transitionOptions) {
		if h != nil {
			opts.beforeHooks = append(opts.beforeHooks, h)
		}
	}
}

// WithAfterTransitionHook adds a hook executed after the lifecycle update succeeds.
func WithAfterTransitionHook(h TransitionHook) TransitionOption {
	return func(opts *transitionOptions) {
		if h != nil {
			opts.afterHooks = append(opts.afterHooks, h)
		}
	}
}

// NewInviteStateMachine returns the default implementation backed by the provided store.
func NewInviteStateMachine(store LifecycleStore, opts ...StateMachineOption) InviteStateMachine {
	sm := &inviteStateMachine{
		store: store,
		transitions: map[LifecycleState]map[LifecycleState]struct{}{
			LifecycleActive: {
				LifecycleRevoked: {},
			},
			LifecycleRevoked: {
				LifecycleActive: {},
			},
		},
		now:          time.Now,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
		hookErrorHandler: func(ctx context.Context, phase TransitionHookPhase, err error, tc TransitionContext) error {
			return defaultHookErrorHandler(ctx, phase, err, tc)
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	return sm
}

type inviteStateMachine struct {
	store            LifecycleStore
	transitions      map[LifecycleState]map[LifecycleState]struct{}
	now              func() time.Time
	activitySink     ActivitySink
	logger           Logger
	hookErrorHandler HookErrorHandler
}

type transitionOptions struct {
	metadata    TransitionMetadata
	force       bool
	beforeHooks []TransitionHook
	afterHooks  []TransitionHook
}

func (o *transitionOptions) cloneMetadata() TransitionMetadata {
	var cloned map[string]any
	if len(o.metadata.Metadata) > 0 {
		cloned = make(map[string]any, len(o.metadata.Metadata))
		for k, v := range o.metadata.Metadata {
			cloned[k] = v
		}
	}

	return TransitionMetadata{
		Reason:   o.metadata.Reason,
		Metadata: cloned,
	}
}

func (sm *inviteStateMachine) Transition(ctx context.Context, actor ActorRef, invite *Invite, target LifecycleState, opts ...TransitionOption) (*Invite, error) {
	if invite == nil {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"target": target,
			"reason": "invite is nil",
		})
	}

	from := invite.Lifecycle()
	if target == "" {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"reason": "target state is empty",
		})
	}

	if from == target {
		return invite, nil
	}

	options := sm.buildTransitionOptions(opts...)

	if !options.force && !sm.canTransition(from, target) {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"from": from,
			"to":   target,
		})
	}

	ctxData := TransitionContext{
		Actor:  actor,
		Invite: invite,
		From:   from,
		To:     target,
		Meta:   options.cloneMetadata(),
	}

	if err := sm.runHooks(ctx, options.beforeHooks, ctxData, HookPhaseBefore); err != nil {
		return nil, err
	}

	if err := sm.persist(ctx, invite, target); err != nil {
		return nil, err
	}

	if err := sm.runHooks(ctx, options.afterHooks, ctxData, HookPhaseAfter); err != nil {
		return nil, err
	}

	sm.recordActivity(ctx, ActivityEvent{
		EventType: transitionEventType(target),
		Actor:     actor,
		InviteID:  invite.ID.String(),
		Email:     invite.Email,
		FromState: from,
		ToState:   target,
		Metadata:  sm.transitionMetadata(ctxData.Meta),
	})

	return invite, nil
}

func (sm *inviteStateMachine) CurrentState(invite *Invite) LifecycleState {
	if invite == nil {
		return ""
	}
	return invite.Lifecycle()
}

func (sm *inviteStateMachine) persist(ctx context.Context, invite *Invite, target LifecycleState) error {
	switch target {
	case LifecycleRevoked:
		return sm.store.Revoke(ctx, invite)
	case LifecycleActive:
		record, _, err := sm.store.UpsertInvited(ctx, invite.Email)
		if err != nil {
			return err
		}
		invite.Status = record.Status
		invite.DeletedAt = record.DeletedAt
		invite.UpdatedAt = record.UpdatedAt
		return nil
	default:
		return ErrInvalidTransition.WithMetadata(map[string]any{
			"to": target,
		})
	}
}

func (sm *inviteStateMachine) runHooks(ctx context.Context, hooks []TransitionHook, data TransitionContext, phase TransitionHookPhase) error {
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, data); err != nil {
			if sm.hookErrorHandler == nil {
				return err
			}
			return sm.hookErrorHandler(ctx, phase, err, data)
		}
	}
	return nil
}

func (sm *inviteStateMachine) canTransition(from, to LifecycleState) bool {
	if allowed, ok := sm.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

func (sm *inviteStateMachine) buildTransitionOptions(opts ...TransitionOption) *transitionOptions {
	options := &transitionOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}
	return options
}

func defaultHookErrorHandler(_ context.Context, phase TransitionHookPhase, err error, tc TransitionContext) error {
	panic(fmt.Sprintf(
		"go-invites: %s transition hook failed: %v\nInviteID: %s from=%s to=%s reason=%s\nProvide invites.WithStateMachineHookErrorHandler to customize error handling in production.",
		phase,
		err,
		tc.Invite.ID,
		tc.From,
		tc.To,
		tc.Meta.Reason,
	))
}

func (sm *inviteStateMachine) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.Actor == (ActorRef{}) {
		event.Actor = ActorRef{Type: "system"}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = sm.now()
	}

	sink := normalizeActivitySink(sm.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		sm.logger.Warn("state machine activity sink error: %v", err)
	}
}

func transitionEventType(target LifecycleState) ActivityEventType {
	if target == LifecycleActive {
		return ActivityEventInviteRevived
	}
	return ActivityEventInviteRevoked
}

func (sm *inviteStateMachine) transitionMetadata(meta TransitionMetadata) map[string]any {
	if meta.Reason == "" && len(meta.Metadata) == 0 {
		return nil
	}

	result := map[string]any{}
	if meta.Reason != "" {
		result["reason"] = meta.Reason
	}
	for k, v := range meta.Metadata {
		result[k] = v
	}
	return result
}
