package catalog

import "sync"

var (
	standardOnce sync.Once
	standard     *Registry
)

// Standard returns the process-wide registry of the standard card set,
// built on first use.
func Standard() *Registry {
	standardOnce.Do(func() {
		standard = NewStandard()
	})
	return standard
}

// NewStandard builds a fresh registry holding the standard card set. Tests
// use it when they need to register extra behavior.
func NewStandard() *Registry {
	reg := NewRegistry()
	for _, fc := range standardCards() {
		mustRegister(reg.RegisterCard(fc))
	}
	for _, s := range standardSkills(reg) {
		mustRegister(reg.RegisterViewAsSkill(s))
	}
	mustRegister(reg.RegisterTargetModSkill(halberdSkill{reg: reg}))
	mustRegister(reg.RegisterMoveCardsSkill(guanxingSkill{}))
	return reg
}

func mustRegister(err error) {
	if err != nil {
		panic(err)
	}
}
