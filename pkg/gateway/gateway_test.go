package gateway_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/kiaconnect/vehicle-gateway/mocks"
	"github.com/kiaconnect/vehicle-gateway/pkg/gateway"
	"github.com/kiaconnect/vehicle-gateway/pkg/uvo"
)

const secret = "abc123"

var accountVehicles = []uvo.Vehicle{
	{ID: "V1", VIN: "KNDJ23AU4N7000001", Name: "My EV6", Model: "EV6", Year: 2022},
}

var _ = Describe("Gateway", func() {
	var (
		ctrl  *gomock.Controller
		fleet *mocks.MockFleet
	)

	newGateway := func(cfg gateway.Config) *gateway.Gateway {
		g, err := gateway.New(fleet, cfg)
		Expect(err).NotTo(HaveOccurred())
		return g
	}

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		fleet = mocks.NewMockFleet(ctrl)
		DeferCleanup(func() {
			ctrl.Finish()
		})
	})

	Describe("New", func() {
		It("rejects an empty secret", func() {
			_, err := gateway.New(fleet, gateway.Config{TargetVehicleID: "V1"})
			Expect(err).To(HaveOccurred())
		})

		It("rejects a nil fleet", func() {
			_, err := gateway.New(nil, gateway.Config{Secret: secret, TargetVehicleID: "V1"})
			Expect(err).To(HaveOccurred())
		})

		It("requires single-vehicle mode to be explicit", func() {
			_, err := gateway.New(fleet, gateway.Config{Secret: secret})
			Expect(err).To(HaveOccurred())

			_, err = gateway.New(fleet, gateway.Config{Secret: secret, AllowSingleVehicle: true})
			Expect(err).NotTo(HaveOccurred())
		})

		It("fills in default climate settings", func() {
			g := newGateway(gateway.Config{Secret: secret, TargetVehicleID: "V1"})
			Expect(g.ClimateOptions().Temperature).To(Equal(72))
			Expect(g.ClimateOptions().Duration).To(Equal(10))
		})

		It("keeps configured climate settings", func() {
			g := newGateway(gateway.Config{
				Secret:          secret,
				TargetVehicleID: "V1",
				Climate:         uvo.ClimateOptions{Temperature: 65, Duration: 15, Defrost: true},
			})
			Expect(g.ClimateOptions().Temperature).To(Equal(65))
			Expect(g.ClimateOptions().Duration).To(Equal(15))
			Expect(g.ClimateOptions().Defrost).To(BeTrue())
		})
	})

	Describe("Handle", func() {
		var g *gateway.Gateway

		BeforeEach(func() {
			g = newGateway(gateway.Config{Secret: secret, TargetVehicleID: "V1"})
		})

		handle := func(action, reqSecret string) error {
			return g.Handle(context.Background(), gateway.Request{Action: action, Secret: reqSecret})
		}

		Context("with the wrong secret", func() {
			It("returns ErrUnauthorized without contacting the fleet", func() {
				err := handle("UNLOCK", "wrong")
				Expect(err).To(MatchError(gateway.ErrUnauthorized))
				// ctrl.Finish verifies no fleet calls were recorded.
			})

			It("rejects an empty secret", func() {
				Expect(handle("LOCK", "")).To(MatchError(gateway.ErrUnauthorized))
			})
		})

		Context("with an unrecognized action", func() {
			It("returns ErrUnsupportedAction without contacting the fleet", func() {
				Expect(handle("HONK", secret)).To(MatchError(gateway.ErrUnsupportedAction))
				Expect(handle("", secret)).To(MatchError(gateway.ErrUnsupportedAction))
			})

			It("checks the secret before the action", func() {
				Expect(handle("HONK", "wrong")).To(MatchError(gateway.ErrUnauthorized))
			})
		})

		Context("with a valid secret and action", func() {
			It("locks the resolved vehicle exactly once", func() {
				fleet.EXPECT().Vehicles(gomock.Any()).Return(accountVehicles, nil)
				fleet.EXPECT().Lock(gomock.Any(), "V1").Return(nil).Times(1)
				Expect(handle("LOCK", secret)).To(Succeed())
			})

			It("accepts lowercase action names", func() {
				fleet.EXPECT().Vehicles(gomock.Any()).Return(accountVehicles, nil)
				fleet.EXPECT().Unlock(gomock.Any(), "V1").Return(nil)
				Expect(handle("unlock", secret)).To(Succeed())
			})

			It("starts climate with the configured options", func() {
				fleet.EXPECT().Vehicles(gomock.Any()).Return(accountVehicles, nil)
				fleet.EXPECT().StartClimate(gomock.Any(), "V1", uvo.ClimateOptions{Temperature: 72, Duration: 10}).Return(nil)
				Expect(handle("START_CLIMATE", secret)).To(Succeed())
			})

			It("stops climate", func() {
				fleet.EXPECT().Vehicles(gomock.Any()).Return(accountVehicles, nil)
				fleet.EXPECT().StopClimate(gomock.Any(), "V1").Return(nil)
				Expect(handle("STOP_CLIMATE", secret)).To(Succeed())
			})

			It("wraps vendor failures with the command and vehicle", func() {
				cause := uvo.ErrVehicleAsleep
				fleet.EXPECT().Vehicles(gomock.Any()).Return(accountVehicles, nil)
				fleet.EXPECT().Lock(gomock.Any(), "V1").Return(cause)

				err := handle("LOCK", secret)
				var cmdErr *gateway.CommandError
				Expect(errors.As(err, &cmdErr)).To(BeTrue())
				Expect(cmdErr.Action).To(Equal(gateway.ActionLock))
				Expect(cmdErr.VehicleID).To(Equal("V1"))
				Expect(errors.Is(err, cause)).To(BeTrue())
			})
		})

		Context("vehicle resolution", func() {
			It("fails when the target vehicle is not on the account", func() {
				fleet.EXPECT().Vehicles(gomock.Any()).Return([]uvo.Vehicle{{ID: "V2"}}, nil)
				Expect(handle("LOCK", secret)).To(MatchError(gateway.ErrVehicleNotFound))
			})

			It("fails when the account has no vehicles", func() {
				fleet.EXPECT().Vehicles(gomock.Any()).Return(nil, nil)
				Expect(handle("LOCK", secret)).To(MatchError(gateway.ErrVehicleNotFound))
			})

			It("surfaces enumeration failures", func() {
				fleet.EXPECT().Vehicles(gomock.Any()).Return(nil, uvo.ErrTokenExpired)
				Expect(handle("LOCK", secret)).To(MatchError(uvo.ErrTokenExpired))
			})
		})

		Context("in single-vehicle mode", func() {
			BeforeEach(func() {
				g = newGateway(gateway.Config{Secret: secret, AllowSingleVehicle: true})
			})

			It("uses the only vehicle on the account", func() {
				fleet.EXPECT().Vehicles(gomock.Any()).Return(accountVehicles, nil)
				fleet.EXPECT().Lock(gomock.Any(), "V1").Return(nil)
				Expect(handle("LOCK", secret)).To(Succeed())
			})

			It("refuses to guess between multiple vehicles", func() {
				fleet.EXPECT().Vehicles(gomock.Any()).Return([]uvo.Vehicle{{ID: "V1"}, {ID: "V2"}}, nil)
				Expect(handle("LOCK", secret)).To(MatchError(gateway.ErrVehicleAmbiguous))
			})
		})
	})

	Describe("ParseAction", func() {
		It("recognizes the four command names in any case", func() {
			for name, expected := range map[string]gateway.Action{
				"LOCK":            gateway.ActionLock,
				"unlock":          gateway.ActionUnlock,
				" Start_Climate ": gateway.ActionStartClimate,
				"stop_climate":    gateway.ActionStopClimate,
			} {
				action, err := gateway.ParseAction(name)
				Expect(err).NotTo(HaveOccurred())
				Expect(action).To(Equal(expected))
			}
		})

		It("rejects everything else", func() {
			for _, name := range []string{"", "honk", "LOCKS", "lock unlock"} {
				_, err := gateway.ParseAction(name)
				Expect(err).To(MatchError(gateway.ErrUnsupportedAction))
			}
		})
	})
})
