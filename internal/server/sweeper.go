package server

import (
	"log"
	"time"
)

// StartSweeper runs the stale-room sweep on a fixed interval until Stop is
// called. Active rooms rely on their session tickers for phase deadlines;
// the sweeper only reclaims abandoned seats and dead rooms.
func (s *Server) StartSweeper() {
	interval := time.Duration(s.cfg.SweepIntervalSeconds) * time.Second
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		log.Printf("sweeper started interval=%s lease_ttl=%ds", interval, s.cfg.LeaseTTLSeconds)
		for {
			select {
			case <-ticker.C:
				s.CleanupStaleRooms()
			case <-s.stop:
				return
			}
		}
	}()
}

func (s *Server) Stop() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
}
