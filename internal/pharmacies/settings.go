package pharmacies

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

// DefaultTimeZone is used when a pharmacy has not configured one.
const DefaultTimeZone = "America/El_Salvador"

// Settings is the configuration document stored in pharmacies.settings.
type Settings struct {
	General    GeneralSettings   `json:"general"`
	Parameters SystemParameters  `json:"parametros"`
	POS        POSSettings       `json:"pos"`
	Reports    ReportPreferences `json:"reportes"`
	Security   SecuritySettings  `json:"seguridad"`
}

type GeneralSettings struct {
	PharmacyName string  `json:"nombre_farmacia" validate:"required,max=200"`
	Address      *string `json:"direccion,omitempty"`
	Phone        *string `json:"telefono,omitempty" validate:"omitempty,max=30"`
	Email        *string `json:"email,omitempty" validate:"omitempty,email"`
	Currency     string  `json:"moneda" validate:"omitempty,len=3"`
	TimeZone     string  `json:"zona_horaria" validate:"omitempty,max=64"`
	LogoURL      *string `json:"logo_url,omitempty" validate:"omitempty,url"`
}

type SystemParameters struct {
	DefaultMinimumStock int     `json:"stock_minimo_defecto" validate:"gte=0"`
	ExpiryAlertDays     int     `json:"dias_alerta_vencimiento" validate:"gte=0,lte=3650"`
	ReceiptNumbering    string  `json:"numeracion_comprobantes"`
	TaxRate             float64 `json:"impuestos_valor" validate:"gte=0,lte=100"`
}

type POSSettings struct {
	BarcodeScanner        bool     `json:"lector_codigo_barras"`
	PrinterType           string   `json:"tipo_impresora"`
	EnabledPaymentMethods []string `json:"metodos_pago_habilitados"`
}

type ReportPreferences struct {
	Enabled            bool     `json:"reportes_activos"`
	PreferredFormat    string   `json:"formato_preferido" validate:"omitempty,oneof=pdf excel"`
	NotificationEmails []string `json:"correos_notificaciones" validate:"omitempty,dive,email"`
}

type SecuritySettings struct {
	SessionMinutes int `json:"tiempo_sesion" validate:"gte=0"`
}

// DefaultSettings returns the configuration a new pharmacy starts with.
func DefaultSettings() Settings {
	return Settings{
		General: GeneralSettings{
			Currency: "USD",
			TimeZone: DefaultTimeZone,
		},
		Parameters: SystemParameters{
			DefaultMinimumStock: 10,
			ExpiryAlertDays:     60,
			ReceiptNumbering:    "000001",
			TaxRate:             13.0,
		},
		POS: POSSettings{
			BarcodeScanner:        true,
			PrinterType:           "Térmica 80mm",
			EnabledPaymentMethods: []string{"Efectivo", "Tarjeta", "Transferencia"},
		},
		Reports: ReportPreferences{
			Enabled:            true,
			PreferredFormat:    "pdf",
			NotificationEmails: []string{},
		},
		Security: SecuritySettings{
			SessionMinutes: 60,
		},
	}
}

// decodeSettings overlays the stored document on top of the defaults so that
// sections missing from older rows still read as configured.
func decodeSettings(raw []byte) (Settings, error) {
	settings := DefaultSettings()
	if len(raw) == 0 || strings.TrimSpace(string(raw)) == "null" {
		return settings, nil
	}
	if err := json.Unmarshal(raw, &settings); err != nil {
		return DefaultSettings(), fmt.Errorf("decode pharmacy settings: %w", err)
	}
	return settings, nil
}

// Location resolves the configured time zone, falling back to the default
// zone and finally UTC.
func (s Settings) Location() *time.Location {
	for _, name := range []string{s.General.TimeZone, DefaultTimeZone} {
		if strings.TrimSpace(name) == "" {
			continue
		}
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.UTC
}
