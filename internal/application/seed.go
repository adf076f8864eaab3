package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/shift-roster/internal/persistence"
)

// DefaultShiftCodes is the registry a fresh store starts with.
var DefaultShiftCodes = []persistence.ShiftCode{
	{Code: "20", Label: "10 AM - 7 PM", Color: "#FF6B6B", Hours: 8},
	{Code: "15", Label: "8 AM - 5 PM", Color: "#4ECDC4", Hours: 8},
	{Code: "VC", Label: "Vacaciones", Color: "#9B5DE5", Hours: 0},
	{Code: "CP", Label: "Cumpleaños", Color: "#00F5D4", Hours: 0},
	{Code: "PA", Label: "Permiso", Color: "#FF9E00", Hours: 0},
	{Code: "-1", Label: "Ausente", Color: "#E0E0E0", Hours: 0},
}

// DefaultSettings is the configuration a fresh store starts with.
var DefaultSettings = []persistence.Setting{
	{Key: "departamentos", Value: "Administración,Tienda,Droguería,Cajas,Control Interno,Equipos Médicos,Domicilios", Type: persistence.SettingList, Description: "Departamentos de la empresa"},
	{Key: "formato_hora", Value: "24 horas", Type: persistence.SettingText, Description: "Formato de hora"},
	{Key: "dias_vacaciones", Value: "15", Type: persistence.SettingNumber, Description: "Días de vacaciones por año"},
	{Key: "inicio_semana", Value: "Lunes", Type: persistence.SettingText, Description: "Día de inicio de semana"},
}

// Seeder populates a fresh store with the default shift codes, configuration,
// and a bootstrap admin account.
type Seeder struct {
	codes    persistence.ShiftCodeRepository
	settings persistence.SettingRepository
	users    persistence.UserRepository
	hash     func(password string) (string, error)
	logger   *slog.Logger
}

// NewSeeder wires dependencies for seeding.
func NewSeeder(codes persistence.ShiftCodeRepository, settings persistence.SettingRepository, users persistence.UserRepository, logger *slog.Logger) *Seeder {
	return &Seeder{
		codes:    codes,
		settings: settings,
		users:    users,
		hash: func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		},
		logger: defaultLogger(logger),
	}
}

// Seed writes the defaults, skipping anything that already exists. The
// bootstrap admin is created with the supplied password and must rotate it on
// first login.
func (s *Seeder) Seed(ctx context.Context, adminPassword string) error {
	for _, code := range DefaultShiftCodes {
		if _, err := s.codes.GetShiftCode(ctx, code.Code); err == nil {
			continue
		}
		if err := s.codes.UpsertShiftCode(ctx, code); err != nil {
			return fmt.Errorf("failed to seed shift code %s: %w", code.Code, err)
		}
	}

	for _, setting := range DefaultSettings {
		if _, err := s.settings.GetSetting(ctx, setting.Key); err == nil {
			continue
		}
		if err := s.settings.UpsertSetting(ctx, setting); err != nil {
			return fmt.Errorf("failed to seed setting %s: %w", setting.Key, err)
		}
	}

	if _, err := s.users.GetUser(ctx, "admin"); err == nil {
		return nil
	}

	if len(adminPassword) < 6 {
		return fmt.Errorf("admin password must be at least 6 characters")
	}
	hash, err := s.hash(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := persistence.User{
		Username:           "admin",
		PasswordHash:       hash,
		Role:               persistence.RoleAdmin,
		DisplayName:        "Administrador",
		Department:         "Administración",
		MustChangePassword: true,
	}
	if err := s.users.CreateUser(ctx, admin); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	s.logger.InfoContext(ctx, "store seeded", "admin_user", admin.Username)
	return nil
}
