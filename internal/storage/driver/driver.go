package driver

import (
	"context"
	"fmt"

	"github.com/region23/medbook/internal/config"
	"github.com/region23/medbook/internal/storage"
	"github.com/region23/medbook/internal/storage/jsonfile"
	"github.com/region23/medbook/internal/storage/memory"
	"github.com/region23/medbook/internal/storage/models"
	"github.com/region23/medbook/internal/storage/postgres"
	"github.com/region23/medbook/internal/storage/redisstore"
	"github.com/region23/medbook/internal/storage/sqlite"
	"github.com/region23/medbook/pkg/logger"
)

// Open создает бэкенд по конфигурации и три коллекции поверх него
func Open(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*storage.Stores, storage.Backend, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		return bundle(log,
			sqlite.NewTable[models.Patient](db, storage.CollectionPatients),
			sqlite.NewTable[models.Doctor](db, storage.CollectionDoctors),
			sqlite.NewTable[models.Appointment](db, storage.CollectionAppointments),
		), db, nil

	case config.DriverPostgres:
		db, err := postgres.New(ctx, cfg.URL, cfg.MaxConnections, cfg.ConnTimeout)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		return bundle(log,
			postgres.NewTable[models.Patient](db, storage.CollectionPatients),
			postgres.NewTable[models.Doctor](db, storage.CollectionDoctors),
			postgres.NewTable[models.Appointment](db, storage.CollectionAppointments),
		), db, nil

	case config.DriverRedis:
		connCtx := ctx
		if cfg.ConnTimeout > 0 {
			var cancel context.CancelFunc
			connCtx, cancel = context.WithTimeout(ctx, cfg.ConnTimeout)
			defer cancel()
		}
		rs, err := redisstore.New(connCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisKeyPrefix)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open redis: %w", err)
		}
		return bundle(log,
			redisstore.NewList[models.Patient](rs, storage.CollectionPatients),
			redisstore.NewList[models.Doctor](rs, storage.CollectionDoctors),
			redisstore.NewList[models.Appointment](rs, storage.CollectionAppointments),
		), rs, nil

	case config.DriverJSON:
		dir, err := jsonfile.Open(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		patients, err := jsonfile.NewFile[models.Patient](dir, storage.CollectionPatients)
		if err != nil {
			return nil, nil, err
		}
		doctors, err := jsonfile.NewFile[models.Doctor](dir, storage.CollectionDoctors)
		if err != nil {
			return nil, nil, err
		}
		appointments, err := jsonfile.NewFile[models.Appointment](dir, storage.CollectionAppointments)
		if err != nil {
			return nil, nil, err
		}
		return bundle(log, patients, doctors, appointments), dir, nil

	case config.DriverMemory:
		return bundle(log,
			memory.New[models.Patient](),
			memory.New[models.Doctor](),
			memory.New[models.Appointment](),
		), memory.Backend{}, nil
	}

	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

func bundle(
	log *logger.Logger,
	patients storage.Source[models.Patient],
	doctors storage.Source[models.Doctor],
	appointments storage.Source[models.Appointment],
) *storage.Stores {
	return &storage.Stores{
		Patients:     storage.NewCollection(storage.CollectionPatients, patients, log),
		Doctors:      storage.NewCollection(storage.CollectionDoctors, doctors, log),
		Appointments: storage.NewCollection(storage.CollectionAppointments, appointments, log),
	}
}
