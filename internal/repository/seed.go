package repository

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"agriland/internal/model"

	"gorm.io/gorm"
)

// SeedRepository handles database seeding operations
type SeedRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewSeedRepository creates a new seed repository
func NewSeedRepository(db *gorm.DB, logger *slog.Logger) *SeedRepository {
	return &SeedRepository{db: db, logger: logger}
}

// seedRegion is a Senegalese region with a representative centre point
type seedRegion struct {
	Name     string
	City     string
	Communes []string
	Lat, Lng float64
}

var seedRegions = []seedRegion{
	{Name: "Thies", City: "Thies", Communes: []string{"Thies Nord", "Pout", "Khombole"}, Lat: 14.7910, Lng: -16.9359},
	{Name: "Dakar", City: "Rufisque", Communes: []string{"Bambilor", "Sangalkam"}, Lat: 14.7645, Lng: -17.2003},
	{Name: "Saint-Louis", City: "Saint-Louis", Communes: []string{"Ross Bethio", "Richard Toll"}, Lat: 16.0179, Lng: -16.4896},
	{Name: "Kaolack", City: "Kaolack", Communes: []string{"Ndoffane", "Gandiaye"}, Lat: 14.1652, Lng: -16.0758},
	{Name: "Ziguinchor", City: "Ziguinchor", Communes: []string{"Niaguis", "Adeane"}, Lat: 12.5681, Lng: -16.2719},
}

var seedCrops = []string{"Mil", "Arachide", "Riz", "Oignon", "Mangue", "Mais", "Niebe", "Tomate"}

// SeedDatabase fills an empty database with demo technicians, lands and requests.
// It does nothing when technicians already exist.
func (s *SeedRepository) SeedDatabase(ctx context.Context) error {
	var existing int64
	if err := s.db.WithContext(ctx).Model(&model.Technician{}).Count(&existing).Error; err != nil {
		return fmt.Errorf("failed to count technicians: %w", err)
	}
	if existing > 0 {
		s.logger.Info("seed skipped, database not empty", "technicians", existing)
		return nil
	}

	rng := rand.New(rand.NewSource(42))

	technicians, err := s.createTechnicians(ctx)
	if err != nil {
		return fmt.Errorf("failed to create technicians: %w", err)
	}

	lands, err := s.createLands(ctx, rng)
	if err != nil {
		return fmt.Errorf("failed to create lands: %w", err)
	}

	requests, err := s.createRequests(ctx, lands)
	if err != nil {
		return fmt.Errorf("failed to create requests: %w", err)
	}

	s.logger.Info("seeded database",
		"technicians", len(technicians),
		"lands", len(lands),
		"requests", len(requests),
	)
	return nil
}

// createTechnicians creates one or two technicians per region
func (s *SeedRepository) createTechnicians(ctx context.Context) ([]model.Technician, error) {
	technicians := []model.Technician{
		{FullName: "Moussa Diop", Email: "moussa.diop@example.sn", Phone: "+221770000001", Specialization: "Pedologie",
			CoverageRegions: []string{"Thies", "Dakar"}, Status: model.TechnicianActive},
		{FullName: "Awa Ndiaye", Email: "awa.ndiaye@example.sn", Phone: "+221770000002", Specialization: "Agronomie",
			CoverageRegions: []string{"Saint-Louis"}, Status: model.TechnicianActive},
		{FullName: "Ibrahima Fall", Email: "ibrahima.fall@example.sn", Phone: "+221770000003",
			CoverageRegions: []string{"Kaolack", "Thies"}, Status: model.TechnicianActive},
		{FullName: "Fatou Sarr", Email: "fatou.sarr@example.sn", Phone: "+221770000004",
			CoverageRegions: []string{"Ziguinchor"}, Status: model.TechnicianOnLeave},
		{FullName: "Cheikh Ba", Email: "cheikh.ba@example.sn", Phone: "+221770000005",
			CoverageRegions: []string{"Dakar"}, Status: model.TechnicianInactive},
	}

	if err := s.db.WithContext(ctx).Create(&technicians).Error; err != nil {
		return nil, err
	}
	return technicians, nil
}

// createLands creates a few listings per region; half of them already measured
func (s *SeedRepository) createLands(ctx context.Context, rng *rand.Rand) ([]model.Land, error) {
	textures := []model.SoilTexture{model.TextureSandy, model.TextureClay, model.TextureLoamy, model.TextureSilty}
	drainages := []model.Drainage{model.DrainageExcellent, model.DrainageGood, model.DrainageModerate, model.DrainagePoor}

	lands := []model.Land{}
	for _, region := range seedRegions {
		for i := 0; i < 4; i++ {
			landType := model.LandTypeRent
			price := float64(100000 + rng.Intn(900000))
			if i%2 == 1 {
				landType = model.LandTypeSale
				price = float64(2000000 + rng.Intn(18000000))
			}
			surface := float64(1+rng.Intn(40)) + float64(rng.Intn(10))/10

			land := model.Land{
				OwnerID:     fmt.Sprintf("owner-%d", 1+rng.Intn(6)),
				Title:       fmt.Sprintf("%s parcel %d", region.Name, i+1),
				Description: fmt.Sprintf("Agricultural parcel near %s", region.City),
				Surface:     surface,
				Type:        landType,
				Price:       price,
				PriceUnit:   "FCFA",
				Status:      model.LandStatusAvailable,
				Address: model.Address{
					City:    region.City,
					Region:  region.Name,
					Commune: region.Communes[i%len(region.Communes)],
					Country: "Senegal",
				},
				RecommendedCrops: []string{seedCrops[rng.Intn(len(seedCrops))], seedCrops[rng.Intn(len(seedCrops))]},
			}

			// Half of the parcels have already been through a mission
			if i < 2 {
				land.Location = model.NewGeoPoint(
					region.Lat+(rng.Float64()-0.5)*0.2,
					region.Lng+(rng.Float64()-0.5)*0.2,
				)
				land.SoilParameters = &model.SoilParameters{
					Ph: 5 + float64(rng.Intn(30))/10,
					NPK: model.NPK{
						Nitrogen:   float64(10 + rng.Intn(60)),
						Phosphorus: float64(5 + rng.Intn(40)),
						Potassium:  float64(50 + rng.Intn(200)),
					},
					Texture:  textures[rng.Intn(len(textures))],
					Moisture: float64(10 + rng.Intn(60)),
					Drainage: drainages[rng.Intn(len(drainages))],
				}
			}
			lands = append(lands, land)
		}
	}

	if err := s.db.WithContext(ctx).Create(&lands).Error; err != nil {
		return nil, err
	}
	return lands, nil
}

// createRequests opens a pending request for every unmeasured land
func (s *SeedRepository) createRequests(ctx context.Context, lands []model.Land) ([]model.SoilAnalysisRequest, error) {
	requests := []model.SoilAnalysisRequest{}
	for i := range lands {
		land := lands[i]
		if land.HasSoilData() {
			continue
		}
		landID := land.ID
		requests = append(requests, model.SoilAnalysisRequest{
			FullName: "Proprietaire " + land.OwnerID,
			Email:    land.OwnerID + "@example.sn",
			Phone:    "+221780000000",
			Region:   land.Address.Region,
			Commune:  land.Address.Commune,
			Surface:  land.Surface,
			LandID:   &landID,
			Origin:   model.OriginLandListing,
		})
	}

	if len(requests) == 0 {
		return requests, nil
	}
	if err := s.db.WithContext(ctx).Create(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}
