package gatehouse

import "context"

// UpdateSetting changes a setting's value and records the change in the
// audit stream. Derived policies keep their cached values until
// [Engine.ReloadAll]; only the password policy sees the change immediately.
func (e *Engine) UpdateSetting(ctx context.Context, key, value string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	err := e.settings.Update(ctx, key, value)

	ev := newAuditEvent("setting.updated")
	ev.Success = err == nil
	ev.Metadata = map[string]string{"key": key}
	if err != nil {
		ev.Error = err.Error()
	}
	e.emitAudit(ctx, ev)

	return err
}

// DeactivateSetting disables a non-default setting so getters report it as
// absent. System defaults cannot be deactivated.
func (e *Engine) DeactivateSetting(ctx context.Context, key string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	err := e.settings.Deactivate(ctx, key)

	ev := newAuditEvent("setting.deactivated")
	ev.Success = err == nil
	ev.Metadata = map[string]string{"key": key}
	if err != nil {
		ev.Error = err.Error()
	}
	e.emitAudit(ctx, ev)

	return err
}

// ResetSetting restores a system default to its seed-time value.
func (e *Engine) ResetSetting(ctx context.Context, key string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	err := e.settings.ResetToDefault(ctx, key)

	ev := newAuditEvent("setting.reset")
	ev.Success = err == nil
	ev.Metadata = map[string]string{"key": key}
	if err != nil {
		ev.Error = err.Error()
	}
	e.emitAudit(ctx, ev)

	return err
}
