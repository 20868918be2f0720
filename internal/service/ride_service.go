package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/arvindrao/savaari/internal/cache"
	apperrors "github.com/arvindrao/savaari/internal/errors"
	"github.com/arvindrao/savaari/internal/models"
	"github.com/arvindrao/savaari/internal/repository"
	"github.com/arvindrao/savaari/internal/subscription"
)

type RideService interface {
	RequestRide(ctx context.Context, userID string, req *models.CreateRideRequest, idempotencyKey string) (*models.Ride, error)
	GetRide(ctx context.Context, id string) (*models.RideResponse, error)
	CancelRide(ctx context.Context, id string, req *models.CancelRideRequest) (*models.Ride, error)
	UpdateStatus(ctx context.Context, id string, req *models.UpdateRideStatusRequest) (*models.Ride, error)
	UpdateDriverLocation(ctx context.Context, driverID string, req *models.UpdateDriverLocationRequest) error
}

type rideService struct {
	rideRepo      repository.RideRepository
	userRepo      repository.UserRepository
	driverRepo    repository.DriverRepository
	passengerRepo repository.PassengerRepository
	estimates     EstimateService
	subscriptions SubscriptionService
	rideCache     cache.RideCache
}

func NewRideService(
	rideRepo repository.RideRepository,
	userRepo repository.UserRepository,
	driverRepo repository.DriverRepository,
	passengerRepo repository.PassengerRepository,
	estimates EstimateService,
	subscriptions SubscriptionService,
	rideCache cache.RideCache,
) RideService {
	return &rideService{
		rideRepo:      rideRepo,
		userRepo:      userRepo,
		driverRepo:    driverRepo,
		passengerRepo: passengerRepo,
		estimates:     estimates,
		subscriptions: subscriptions,
		rideCache:     rideCache,
	}
}

func (s *rideService) RequestRide(ctx context.Context, userID string, req *models.CreateRideRequest, idempotencyKey string) (*models.Ride, error) {
	if idempotencyKey != "" {
		existing, err := s.rideRepo.GetByIdempotencyKey(ctx, idempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NotFound("user")
	}

	active, err := s.rideRepo.GetActiveRideByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, apperrors.UserHasActiveRide()
	}

	estimateReq := &models.FareEstimateRequest{
		Pickup:      req.Pickup,
		Dropoff:     req.Dropoff,
		City:        req.City,
		VehicleType: req.VehicleType,
		SeatCount:   req.SeatCount,
	}
	estimate, err := s.estimates.Estimate(ctx, estimateReq, time.Now())
	if err != nil {
		return nil, err
	}
	distanceKm, durationMins := s.estimates.RouteEstimate(ctx, req.Pickup, req.Dropoff)

	// A failed subscription lookup never blocks booking.
	validation := &subscription.Validation{}
	if v, err := s.subscriptions.Validate(ctx, userID); err == nil {
		validation = v
	} else {
		log.Printf("subscription validation failed for user %s, booking without discount: %v", userID, err)
	}
	discount := subscription.ApplyDiscount(estimate.Breakdown.Total, *validation)

	ride := &models.Ride{
		UserID:         userID,
		PickupLat:      req.Pickup.Lat,
		PickupLng:      req.Pickup.Lng,
		DropoffLat:     req.Dropoff.Lat,
		DropoffLng:     req.Dropoff.Lng,
		City:           req.City,
		VehicleType:    req.VehicleType,
		RideMode:       req.RideMode,
		SeatCount:      req.SeatCount,
		PaymentMethod:  req.PaymentMethod,
		DiscountAmount: discount.DiscountAmount,
	}
	if req.Pickup.Address != "" {
		ride.PickupAddress = &req.Pickup.Address
	}
	if req.Dropoff.Address != "" {
		ride.DropoffAddress = &req.Dropoff.Address
	}
	if idempotencyKey != "" {
		ride.IdempotencyKey = &idempotencyKey
	}

	estimatedFare := estimate.Breakdown.Total
	totalFare := discount.FinalFare
	ride.EstimatedFare = &estimatedFare
	ride.TotalFare = &totalFare
	ride.EstimatedDistance = &distanceKm
	ride.EstimatedDuration = &durationMins

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, err
	}

	passenger := &models.RidePassenger{
		RideID:     ride.ID,
		UserID:     userID,
		PickupLat:  req.Pickup.Lat,
		PickupLng:  req.Pickup.Lng,
		DropoffLat: req.Dropoff.Lat,
		DropoffLng: req.Dropoff.Lng,
		Fare:       &totalFare,
	}
	if err := s.passengerRepo.Add(ctx, passenger); err != nil {
		log.Printf("failed to record passenger for ride %s: %v", ride.ID, err)
	}

	if err := s.rideCache.SetUserActiveRide(ctx, userID, ride.ID); err != nil {
		log.Printf("failed to cache active ride for user %s: %v", userID, err)
	}

	return ride, nil
}

func (s *rideService) GetRide(ctx context.Context, id string) (*models.RideResponse, error) {
	ride, err := s.rideRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ride == nil {
		return nil, apperrors.NotFound("ride")
	}

	response := ride.ToResponse()

	if user, err := s.userRepo.GetByID(ctx, ride.UserID); err == nil && user != nil {
		response.User = user.ToResponse()
	}

	if ride.DriverID != nil {
		if driver, err := s.driverRepo.GetByID(ctx, *ride.DriverID); err == nil && driver != nil {
			response.Driver = driver.ToResponse()

			if loc, err := s.rideCache.GetDriverLocation(ctx, driver.ID); err == nil && loc != nil {
				response.Driver.CurrentLat = &loc.Lat
				response.Driver.CurrentLng = &loc.Lng
			}
		}
	}

	if ride.RideMode == models.RideModePooled {
		if passengers, err := s.passengerRepo.ListByRideID(ctx, id); err == nil {
			response.Passengers = passengers
		}
	}

	return response, nil
}

func (s *rideService) CancelRide(ctx context.Context, id string, req *models.CancelRideRequest) (*models.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ride == nil {
		return nil, apperrors.NotFound("ride")
	}

	if !ride.CanTransitionTo(models.RideStatusCancelled) {
		return nil, apperrors.RideNotCancellable(ride.Status)
	}

	if err := s.rideRepo.Cancel(ctx, id, req.CancelledBy, req.Reason); err != nil {
		// The guarded UPDATE lost a race with a completion.
		if errors.Is(err, apperrors.ErrRideNotCancellable) {
			if current, getErr := s.rideRepo.GetByID(ctx, id); getErr == nil && current != nil {
				return nil, apperrors.RideNotCancellable(current.Status)
			}
			return nil, apperrors.RideNotCancellable(ride.Status)
		}
		return nil, err
	}
	ride.Status = models.RideStatusCancelled

	s.releaseRide(ctx, ride)

	s.publishStatusEvent(ctx, ride, models.RideStatusCancelled, req.Reason)

	return ride, nil
}

func (s *rideService) UpdateStatus(ctx context.Context, id string, req *models.UpdateRideStatusRequest) (*models.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ride == nil {
		return nil, apperrors.NotFound("ride")
	}

	if !ride.CanTransitionTo(req.Status) {
		return nil, apperrors.InvalidTransition(ride.Status, req.Status)
	}

	switch req.Status {
	case models.RideStatusAccepted:
		if req.DriverID == "" {
			return nil, apperrors.BadRequest("driver_id is required to accept a ride")
		}
		driver, err := s.driverRepo.GetByID(ctx, req.DriverID)
		if err != nil {
			return nil, err
		}
		if driver == nil {
			return nil, apperrors.NotFound("driver")
		}
		if err := s.rideRepo.AssignDriver(ctx, id, req.DriverID); err != nil {
			return nil, err
		}
		ride.DriverID = &req.DriverID
		if err := s.driverRepo.UpdateStatus(ctx, req.DriverID, models.DriverStatusBusy); err != nil {
			log.Printf("failed to mark driver %s busy: %v", req.DriverID, err)
		}
		if err := s.rideCache.SetDriverActiveRide(ctx, req.DriverID, id); err != nil {
			log.Printf("failed to cache active ride for driver %s: %v", req.DriverID, err)
		}

	default:
		if err := s.rideRepo.UpdateStatus(ctx, id, req.Status); err != nil {
			return nil, err
		}
	}
	ride.Status = req.Status

	if req.Status == models.RideStatusCompleted {
		s.releaseRide(ctx, ride)
	}

	s.publishStatusEvent(ctx, ride, req.Status, "")

	return ride, nil
}

// UpdateDriverLocation records a driver position and, when the driver has
// an active ride, fans it out on the tracking channel.
func (s *rideService) UpdateDriverLocation(ctx context.Context, driverID string, req *models.UpdateDriverLocationRequest) error {
	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return err
	}
	if driver == nil {
		return apperrors.NotFound("driver")
	}

	if err := s.rideCache.UpdateDriverLocation(ctx, driverID, req.Lat, req.Lng, req.Heading, req.Speed); err != nil {
		return err
	}
	if err := s.driverRepo.UpdateLocation(ctx, driverID, req.Lat, req.Lng); err != nil {
		log.Printf("failed to persist driver %s location: %v", driverID, err)
	}

	rideID, err := s.rideCache.GetDriverActiveRide(ctx, driverID)
	if err != nil || rideID == "" {
		return nil
	}

	lat, lng := req.Lat, req.Lng
	event := &models.RideEvent{
		Type:     models.EventLocationUpdate,
		RideID:   rideID,
		DriverID: driverID,
		Lat:      &lat,
		Lng:      &lng,
		Heading:  req.Heading,
		Speed:    req.Speed,
	}
	if err := s.rideCache.PublishRideEvent(ctx, event); err != nil {
		log.Printf("failed to publish location for ride %s: %v", rideID, err)
	}
	return nil
}

// releaseRide clears active-ride indexes and frees the driver after a
// terminal transition.
func (s *rideService) releaseRide(ctx context.Context, ride *models.Ride) {
	if err := s.rideCache.ClearUserActiveRide(ctx, ride.UserID); err != nil {
		log.Printf("failed to clear active ride for user %s: %v", ride.UserID, err)
	}
	if ride.DriverID == nil {
		return
	}
	if err := s.driverRepo.UpdateStatus(ctx, *ride.DriverID, models.DriverStatusOnline); err != nil {
		log.Printf("failed to free driver %s: %v", *ride.DriverID, err)
	}
	if err := s.rideCache.ClearDriverActiveRide(ctx, *ride.DriverID); err != nil {
		log.Printf("failed to clear active ride for driver %s: %v", *ride.DriverID, err)
	}
}

func (s *rideService) publishStatusEvent(ctx context.Context, ride *models.Ride, status, reason string) {
	eventType, ok := models.EventForStatus(status)
	if !ok {
		return
	}

	event := &models.RideEvent{
		Type:   eventType,
		RideID: ride.ID,
		Status: status,
		Reason: reason,
	}
	if ride.DriverID != nil {
		event.DriverID = *ride.DriverID
	}
	if err := s.rideCache.PublishRideEvent(ctx, event); err != nil {
		log.Printf("failed to publish %s for ride %s: %v", eventType, ride.ID, err)
	}
}
