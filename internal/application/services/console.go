package services

import (
	"context"

	config "github.com/peakhr/console/configs"
	"github.com/peakhr/console/internal/core/domain/listing"
	"github.com/peakhr/console/internal/core/domain/resource"
	"github.com/peakhr/console/internal/core/ports"
	"github.com/sirupsen/logrus"
)

// Screen pairs the synchronizer and coordinator of one admin collection.
type Screen struct {
	List      ports.ListSynchronizer
	Mutations ports.MutationCoordinator
}

// Mount performs the initial default-view load a screen issues when it
// appears.
func (s *Screen) Mount(ctx context.Context) error {
	return s.List.Load(ctx, listing.Query{Page: 1}, false)
}

func (s *Screen) Unmount() {
	s.List.Close()
}

// Console wires the three admin screens over shared infrastructure. The UI
// binding owns one Console per signed-in admin.
type Console struct {
	Services     *Screen
	Testimonials *Screen
	WhyChooseUs  *Screen
}

type ConsoleDeps struct {
	API      ports.UpstreamClient
	Cache    ports.ListCache
	Sessions ports.SessionService
	Notifier ports.Notifier
	Confirm  ports.Confirmer
	Config   *config.CacheConfig
	Logger   *logrus.Logger
}

func NewConsole(deps ConsoleDeps) *Console {
	screen := func(d resource.Descriptor) *Screen {
		list := NewListService(d, deps.API, deps.Cache, deps.Sessions, deps.Notifier, deps.Config, deps.Logger)
		return &Screen{
			List:      list,
			Mutations: NewMutationService(d, deps.API, deps.Cache, list, deps.Confirm, deps.Notifier, deps.Sessions, deps.Logger),
		}
	}
	return &Console{
		Services:     screen(resource.Services),
		Testimonials: screen(resource.Testimonials),
		WhyChooseUs:  screen(resource.WhyChooseUs),
	}
}

func (c *Console) Close() {
	c.Services.Unmount()
	c.Testimonials.Unmount()
	c.WhyChooseUs.Unmount()
}
