package application

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/example/shift-roster/internal/persistence"
)

func newSettingsFixture(settings ...persistence.Setting) (*SettingsService, *memSettings) {
	mem := newMemSettings(settings...)
	return NewSettingsService(mem, &memAudit{}, fixedClock, nil), mem
}

func TestPutSetting(t *testing.T) {
	service, mem := newSettingsFixture()

	err := service.Put(context.Background(), adminPrincipal(), persistence.Setting{
		Key:   "dias_vacaciones",
		Value: "15",
		Type:  persistence.SettingNumber,
	})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, ok := mem.byKey["dias_vacaciones"]; !ok {
		t.Error("setting not persisted")
	}
}

func TestPutSettingTypeValidation(t *testing.T) {
	service, _ := newSettingsFixture()
	ctx := context.Background()

	cases := []struct {
		name    string
		setting persistence.Setting
		field   string
	}{
		{"empty key", persistence.Setting{Type: persistence.SettingText}, "key"},
		{"bad number", persistence.Setting{Key: "n", Value: "abc", Type: persistence.SettingNumber}, "value"},
		{"bad boolean", persistence.Setting{Key: "b", Value: "maybe", Type: persistence.SettingBoolean}, "value"},
		{"unknown type", persistence.Setting{Key: "x", Value: "1", Type: "json"}, "type"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := service.Put(ctx, adminPrincipal(), tc.setting)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if _, ok := vErr.FieldErrors[tc.field]; !ok {
				t.Errorf("expected %s field error, got %v", tc.field, vErr.FieldErrors)
			}
		})
	}
}

func TestPutSettingRequiresAdmin(t *testing.T) {
	service, _ := newSettingsFixture()

	err := service.Put(context.Background(), supervisorPrincipal(), persistence.Setting{
		Key: "x", Value: "1", Type: persistence.SettingText,
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestTypedGetters(t *testing.T) {
	service, _ := newSettingsFixture(
		persistence.Setting{Key: "formato_hora", Value: "24 horas", Type: persistence.SettingText},
		persistence.Setting{Key: "dias_vacaciones", Value: "15", Type: persistence.SettingNumber},
		persistence.Setting{Key: "notificaciones", Value: "true", Type: persistence.SettingBoolean},
		persistence.Setting{Key: "departamentos", Value: "Cajas, Tienda, ,Droguería", Type: persistence.SettingList},
	)
	ctx := context.Background()

	if got, _ := service.Text(ctx, "formato_hora", "12 horas"); got != "24 horas" {
		t.Errorf("Text: got %q", got)
	}
	if got, _ := service.Text(ctx, "missing", "12 horas"); got != "12 horas" {
		t.Errorf("Text fallback: got %q", got)
	}
	if got, _ := service.Number(ctx, "dias_vacaciones", 10); got != 15 {
		t.Errorf("Number: got %d", got)
	}
	if got, _ := service.Number(ctx, "missing", 10); got != 10 {
		t.Errorf("Number fallback: got %d", got)
	}
	if got, _ := service.Bool(ctx, "notificaciones", false); !got {
		t.Error("Bool: expected true")
	}
	if got, _ := service.Bool(ctx, "missing", true); !got {
		t.Error("Bool fallback: expected true")
	}
	values, _ := service.ListValues(ctx, "departamentos")
	if want := []string{"Cajas", "Tienda", "Droguería"}; !reflect.DeepEqual(values, want) {
		t.Errorf("ListValues: got %v, want %v", values, want)
	}
}
