package delhivery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chowlabs/chow-backend/pkg/config"
	apperrors "github.com/chowlabs/chow-backend/pkg/errors"
	"github.com/chowlabs/chow-backend/pkg/enums"
)

func mockConfig() config.DelhiveryConfig {
	return config.DelhiveryConfig{
		BaseURL:       "https://track.delhivery.com",
		PickupPincode: "273002",
		ReturnPincode: "273002",
		PickupCity:    "Gorakhpur",
		PickupState:   "Uttar Pradesh",
		UseRealAPI:    false,
	}
}

func TestMapStatus(t *testing.T) {
	cases := []struct {
		raw    string
		want   enums.DeliveryStatus
		mapped bool
	}{
		{"Shipped", enums.DeliveryStatusShipmentCreated, true},
		{"Dispatched", enums.DeliveryStatusShipmentCreated, true},
		{"In transit", enums.DeliveryStatusInTransit, true},
		{"Out for Delivery", enums.DeliveryStatusOutForDelivery, true},
		{"Delivered", enums.DeliveryStatusDelivered, true},
		{"RTO-Delivered", enums.DeliveryStatusRTO, true},
		{"Cancelled", enums.DeliveryStatusRTO, true},
		{"Lost", enums.DeliveryStatusRTO, true},
		{"Left Facility", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := MapStatus(tc.raw)
		if ok != tc.mapped {
			t.Fatalf("MapStatus(%q) mapped=%v, want %v", tc.raw, ok, tc.mapped)
		}
		if ok && got != tc.want {
			t.Fatalf("MapStatus(%q) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}

func TestMockRateIsDeterministic(t *testing.T) {
	client := NewClient(mockConfig())

	rate, err := client.CalculateRate(context.Background(), "110001", 1500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// base 5000 + 2kg * 1500 = 8000, plus 10% surcharge = 8800.
	if rate.TotalPaise != 8800 {
		t.Fatalf("expected 8800 paise, got %d", rate.TotalPaise)
	}
	if rate.Currency != "INR" {
		t.Fatalf("unexpected currency %s", rate.Currency)
	}
}

func TestMockShipmentCreation(t *testing.T) {
	client := NewClient(mockConfig())

	shipment, err := client.CreateShipment(context.Background(), ShipmentRequest{
		OrderID: "ord-1",
		Pincode: "110001",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(shipment.Waybill, "MOCK") {
		t.Fatalf("expected mock waybill, got %s", shipment.Waybill)
	}
}

func TestCreateShipmentRejectsLocalPincode(t *testing.T) {
	client := NewClient(mockConfig())

	_, err := client.CreateShipment(context.Background(), ShipmentRequest{
		OrderID: "ord-1",
		Pincode: "273001",
	})
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error for local pincode, got %v", err)
	}
}

func TestMockPincodeSentinels(t *testing.T) {
	client := NewClient(mockConfig())

	info, err := client.CheckPincode(context.Background(), "999999")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Serviceable {
		t.Fatal("expected sentinel pincode to be non-serviceable")
	}

	info, err = client.CheckPincode(context.Background(), "110001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !info.Serviceable {
		t.Fatal("expected pincode to be serviceable")
	}
}

func TestCreateShipmentRealAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cmu/create.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Token ") {
			t.Error("expected token auth header")
		}
		_, _ = w.Write([]byte(`{"packages":[{"waybill":"WB12345","expected_delivery_date":"2026-09-01"}]}`))
	}))
	defer srv.Close()

	cfg := mockConfig()
	cfg.BaseURL = srv.URL
	cfg.UseRealAPI = true
	cfg.Token = "secret"
	client := NewClient(cfg)

	shipment, err := client.CreateShipment(context.Background(), ShipmentRequest{
		OrderID:          "ord-1",
		ConsigneeName:    "Asha Verma",
		Address:          "12 MG Road",
		Pincode:          "110001",
		City:             "New Delhi",
		State:            "Delhi",
		Phone:            "+91-9876543210",
		PaymentMode:      "PREPAID",
		TotalPaise:       45000,
		TotalQuantity:    2,
		TotalWeightGrams: 900,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shipment.Waybill != "WB12345" {
		t.Fatalf("unexpected waybill %s", shipment.Waybill)
	}
}

func TestCreateShipmentRealAPIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"packages":[]}`))
	}))
	defer srv.Close()

	cfg := mockConfig()
	cfg.BaseURL = srv.URL
	cfg.UseRealAPI = true
	client := NewClient(cfg)

	_, err := client.CreateShipment(context.Background(), ShipmentRequest{
		OrderID: "ord-1",
		Pincode: "110001",
	})
	if !apperrors.IsCode(err, apperrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
