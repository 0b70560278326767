package resolver

import (
	"time"

	"github.com/embervale/server/internal/core/system"
	"github.com/embervale/server/internal/world"
	"go.uber.org/zap"
)

// CreditReplay finishes pickups that committed their item swap but
// never landed the inventory credit, e.g. because the process died or
// the database was unreachable mid-apply. It only touches credits old
// enough that the inline apply has clearly given up on them.
type CreditReplay struct {
	deps *Deps
}

func NewCreditReplay(deps *Deps) *CreditReplay {
	return &CreditReplay{deps: deps}
}

func (s *CreditReplay) Phase() system.Phase { return system.PhasePersist }

func (s *CreditReplay) Update(dt time.Duration) { s.Run() }

// Run replays all stale pending credits once.
func (s *CreditReplay) Run() {
	now := s.deps.now()
	minAge := s.deps.Config.Game.CreditReplayAge

	type stale struct {
		key string
		pc  *world.PendingCredit
	}
	var found []stale
	s.deps.Store.ForEachPrefix(world.AreasPrefix, func(key string, val any) {
		pc, ok := val.(*world.PendingCredit)
		if !ok {
			return
		}
		if now.Sub(pc.ClaimedAt) >= minAge {
			found = append(found, stale{key: key, pc: pc})
		}
	})

	for _, st := range found {
		s.deps.Log.Warn("replaying pending credit",
			zap.String("req", st.pc.ReqID), zap.String("uid", st.pc.UID))
		s.deps.ApplyCredit(st.key, st.pc)
	}
}
