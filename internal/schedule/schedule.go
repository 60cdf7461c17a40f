// Package schedule injects commands into the inbound queue at cron times.
package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/google/shlex"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"neopixel-controller/internal/core"
)

// Entry is one saved schedule. Command is a command line; each word is queued
// as a separate token when the schedule fires.
type Entry struct {
	ID      int    `json:"id"`
	Spec    string `json:"spec"`
	Command string `json:"command"`
}

// Scheduler manages the cron entries and their persistence.
type Scheduler struct {
	cron     *cron.Cron
	entries  map[cron.EntryID]Entry
	queue    *core.Queue
	notifier core.Notifier
	mu       sync.RWMutex
	file     string
}

// New creates a Scheduler and loads the schedules saved in file.
func New(q *core.Queue, n core.Notifier, file string) *Scheduler {
	s := &Scheduler{
		cron:     cron.New(),
		entries:  make(map[cron.EntryID]Entry),
		queue:    q,
		notifier: n,
		file:     file,
	}
	s.load()
	return s
}

// Start begins the cron ticker.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Println("[Schedule] Cron scheduler started.")
}

// Stop halts the cron ticker and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[Schedule] Cron scheduler stopped.")
}

// Add registers a schedule and saves the list.
func (s *Scheduler) Add(spec, command string) (Entry, error) {
	tokens, err := shlex.Split(command)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid command %q: %w", command, err)
	}
	if len(tokens) == 0 {
		return Entry{}, errors.New("empty command")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.add(spec, command)
	if err != nil {
		return Entry{}, err
	}
	s.save()
	log.Printf("[Schedule] Added schedule (ID %d): %s -> %s", entry.ID, spec, command)
	return entry, nil
}

func (s *Scheduler) add(spec, command string) (Entry, error) {
	id, err := s.cron.AddFunc(spec, func() { s.execute(command) })
	if err != nil {
		return Entry{}, fmt.Errorf("invalid schedule '%s': %w", spec, err)
	}
	entry := Entry{ID: int(id), Spec: spec, Command: command}
	s.entries[id] = entry
	return entry, nil
}

// Remove deletes a schedule and saves the list.
func (s *Scheduler) Remove(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID := cron.EntryID(id)
	if _, ok := s.entries[entryID]; !ok {
		return fmt.Errorf("no schedule with ID %d", id)
	}
	s.cron.Remove(entryID)
	delete(s.entries, entryID)
	s.save()
	log.Printf("[Schedule] Removed schedule (ID %d)", id)
	return nil
}

// List returns the schedules ordered by ID.
func (s *Scheduler) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// execute queues every word of command. Overflow is reported like for any
// other command source.
func (s *Scheduler) execute(command string) {
	tokens, err := shlex.Split(command)
	if err != nil {
		log.Printf("[Schedule] Cannot parse command %q: %v", command, err)
		return
	}
	log.Printf("[Schedule] Executing scheduled command: %s", command)
	for _, token := range tokens {
		core.Submit(s.queue, s.notifier, token)
	}
}

// save writes the list. The caller holds the lock.
func (s *Scheduler) save() {
	list := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		log.Printf("[Schedule] Error marshalling schedules: %v", err)
		return
	}
	if err := os.WriteFile(s.file, data, 0644); err != nil {
		log.Printf("[Schedule] Error writing schedule file: %v", err)
	}
}

func (s *Scheduler) load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.file)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[Schedule] Error reading schedule file: %v", err)
		}
		return
	}

	var saved []Entry
	if err := json.Unmarshal(data, &saved); err != nil {
		log.Printf("[Schedule] Error unmarshalling schedule file: %v", err)
		return
	}

	log.Printf("[Schedule] Loading %d schedules from file '%s'...", len(saved), s.file)
	for _, entry := range saved {
		if _, err := s.add(entry.Spec, entry.Command); err != nil {
			log.Printf("[Schedule] Error re-adding schedule from file: %v", err)
		}
	}
}
