package gateway_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/kiaconnect/vehicle-gateway/mocks"
	"github.com/kiaconnect/vehicle-gateway/pkg/cache"
	"github.com/kiaconnect/vehicle-gateway/pkg/gateway"
	"github.com/kiaconnect/vehicle-gateway/pkg/uvo"
)

var _ = Describe("HTTP API", func() {
	var (
		ctrl     *gomock.Controller
		fleet    *mocks.MockFleet
		statuses *cache.StatusCache
		g        *gateway.Gateway
	)

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		fleet = mocks.NewMockFleet(ctrl)
		statuses = cache.New(10)

		var err error
		g, err = gateway.New(fleet, gateway.Config{
			Secret:          secret,
			TargetVehicleID: "V1",
			Statuses:        statuses,
		})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			ctrl.Finish()
		})
	})

	sendRequest := func(method, path, reqSecret string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if reqSecret != "" {
			req.Header.Set("Authorization", reqSecret)
		}
		rr := httptest.NewRecorder()
		g.ServeHTTP(rr, req)
		return rr
	}

	decode := func(rr *httptest.ResponseRecorder) map[string]interface{} {
		var reply map[string]interface{}
		Expect(json.Unmarshal(rr.Body.Bytes(), &reply)).To(Succeed())
		return reply
	}

	It("serves a banner without a secret", func() {
		rr := sendRequest(http.MethodGet, "/", "")
		Expect(rr.Code).To(Equal(http.StatusOK))
	})

	It("returns 404 for unknown paths", func() {
		rr := sendRequest(http.MethodGet, "/debug_vehicle", secret)
		Expect(rr.Code).To(Equal(http.StatusNotFound))
	})

	Context("command endpoints", func() {
		It("locks the car", func() {
			fleet.EXPECT().Vehicles(gomock.Any()).Return(accountVehicles, nil)
			fleet.EXPECT().Lock(gomock.Any(), "V1").Return(nil)

			rr := sendRequest(http.MethodPost, "/lock_car", secret)
			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(rr.Header().Get("Content-Type")).To(Equal("application/json"))

			response := decode(rr)["response"].(map[string]interface{})
			Expect(response["result"]).To(BeTrue())
		})

		It("rejects the wrong secret without contacting the fleet", func() {
			rr := sendRequest(http.MethodPost, "/unlock_car", "wrong")
			Expect(rr.Code).To(Equal(http.StatusForbidden))
			Expect(decode(rr)["error"]).To(Equal("unauthorized"))
		})

		It("rejects a missing Authorization header", func() {
			rr := sendRequest(http.MethodPost, "/lock_car", "")
			Expect(rr.Code).To(Equal(http.StatusForbidden))
		})

		It("tolerates a Bearer prefix on the secret", func() {
			fleet.EXPECT().Vehicles(gomock.Any()).Return(accountVehicles, nil)
			fleet.EXPECT().StopClimate(gomock.Any(), "V1").Return(nil)

			rr := sendRequest(http.MethodPost, "/stop_climate", "Bearer "+secret)
			Expect(rr.Code).To(Equal(http.StatusOK))
		})

		It("rejects GET on command endpoints", func() {
			rr := sendRequest(http.MethodGet, "/lock_car", secret)
			Expect(rr.Code).To(Equal(http.StatusMethodNotAllowed))
		})

		It("maps a missing vehicle to 404", func() {
			fleet.EXPECT().Vehicles(gomock.Any()).Return([]uvo.Vehicle{{ID: "V2"}}, nil)
			rr := sendRequest(http.MethodPost, "/lock_car", secret)
			Expect(rr.Code).To(Equal(http.StatusNotFound))
		})

		It("maps an asleep vehicle to 503", func() {
			fleet.EXPECT().Vehicles(gomock.Any()).Return(accountVehicles, nil)
			fleet.EXPECT().StartClimate(gomock.Any(), "V1", gomock.Any()).Return(uvo.ErrVehicleAsleep)

			rr := sendRequest(http.MethodPost, "/start_climate", secret)
			Expect(rr.Code).To(Equal(http.StatusServiceUnavailable))
		})

		It("maps other vendor failures to 502 with the reason attached", func() {
			fleet.EXPECT().Vehicles(gomock.Any()).Return(accountVehicles, nil)
			fleet.EXPECT().Lock(gomock.Any(), "V1").Return(uvo.NewError("vehicle rejected command: doors open", false, false))

			rr := sendRequest(http.MethodPost, "/lock_car", secret)
			Expect(rr.Code).To(Equal(http.StatusBadGateway))
			Expect(decode(rr)["error"]).To(ContainSubstring("doors open"))
		})
	})

	Context("lookup endpoints", func() {
		It("lists vehicles", func() {
			fleet.EXPECT().Vehicles(gomock.Any()).Return(accountVehicles, nil)

			rr := sendRequest(http.MethodGet, "/list_vehicles", secret)
			Expect(rr.Code).To(Equal(http.StatusOK))
			response := decode(rr)["response"].(map[string]interface{})
			vehicles := response["vehicles"].([]interface{})
			Expect(vehicles).To(HaveLen(1))
			Expect(vehicles[0].(map[string]interface{})["id"]).To(Equal("V1"))
		})

		It("returns 404 when the account is empty", func() {
			fleet.EXPECT().Vehicles(gomock.Any()).Return(nil, nil)
			rr := sendRequest(http.MethodGet, "/list_vehicles", secret)
			Expect(rr.Code).To(Equal(http.StatusNotFound))
		})

		It("requires the secret", func() {
			rr := sendRequest(http.MethodGet, "/get_vehicle_status", "wrong")
			Expect(rr.Code).To(Equal(http.StatusForbidden))
		})

		It("rejects POST on lookup endpoints", func() {
			rr := sendRequest(http.MethodPost, "/battery_status", secret)
			Expect(rr.Code).To(Equal(http.StatusMethodNotAllowed))
		})

		It("reports battery percentage", func() {
			fleet.EXPECT().Vehicles(gomock.Any()).Return(accountVehicles, nil)
			fleet.EXPECT().Status(gomock.Any(), "V1").Return(uvo.VehicleStatus{Battery: 81}, nil)

			rr := sendRequest(http.MethodGet, "/battery_status", secret)
			Expect(rr.Code).To(Equal(http.StatusOK))
			response := decode(rr)["response"].(map[string]interface{})
			Expect(response["battery_percentage"]).To(BeNumerically("==", 81))
		})

		It("reports vehicle status and retains the range", func() {
			fleet.EXPECT().Vehicles(gomock.Any()).Return(accountVehicles, nil)
			fleet.EXPECT().Status(gomock.Any(), "V1").Return(uvo.VehicleStatus{Battery: 70, Range: 184.5}, nil)

			rr := sendRequest(http.MethodGet, "/get_vehicle_status", secret)
			Expect(rr.Code).To(Equal(http.StatusOK))
			response := decode(rr)["response"].(map[string]interface{})
			Expect(response["vehicle_id"]).To(Equal("V1"))
			Expect(response["model"]).To(Equal("EV6"))
			Expect(response["drivingRangeMiles"]).To(BeNumerically("==", 184.5))

			cached, ok := statuses.Get("V1")
			Expect(ok).To(BeTrue())
			Expect(cached.Range).To(BeNumerically("==", 184.5))
		})

		It("substitutes the last useful range for a wakeup report", func() {
			statuses.Update("V1", uvo.VehicleStatus{Battery: 70, Range: 184.5})
			fleet.EXPECT().Vehicles(gomock.Any()).Return(accountVehicles, nil)
			fleet.EXPECT().Status(gomock.Any(), "V1").Return(uvo.VehicleStatus{Battery: 69, Range: 0}, nil)

			rr := sendRequest(http.MethodGet, "/get_vehicle_status", secret)
			response := decode(rr)["response"].(map[string]interface{})
			Expect(response["batteryPercentage"]).To(BeNumerically("==", 69))
			Expect(response["drivingRangeMiles"]).To(BeNumerically("==", 184.5))
		})
	})
})
