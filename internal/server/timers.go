package server

import (
	"context"
	"log"
	"time"
)

// RunMaintenance sweeps idle play sessions and expires finished games until ctx ends.
func (s *Server) RunMaintenance(ctx context.Context) {
	sweepEvery := s.cfg.SessionIdle() / 4
	if sweepEvery < time.Minute {
		sweepEvery = time.Minute
	}
	expireEvery := time.Duration(s.cfg.ExpireIntervalSeconds) * time.Second
	if expireEvery <= 0 {
		expireEvery = 5 * time.Minute
	}
	sweep := time.NewTicker(sweepEvery)
	defer sweep.Stop()
	expire := time.NewTicker(expireEvery)
	defer expire.Stop()

	s.expireGames(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-sweep.C:
			s.sweepSessions()
		case <-expire.C:
			s.expireGames(ctx)
		}
	}
}

func (s *Server) sweepSessions() int {
	closed := s.plays.Sweep(s.cfg.SessionIdle(), s.now())
	if closed > 0 {
		log.Printf("play sessions swept closed=%d remaining=%d", closed, s.plays.Len())
	}
	return closed
}

func (s *Server) expireGames(ctx context.Context) int {
	count, err := s.svc.ExpireGames(ctx, s.now())
	if err != nil {
		log.Printf("game expiry failed error=%v", err)
		return 0
	}
	if count > 0 {
		log.Printf("games expired count=%d", count)
	}
	return count
}
