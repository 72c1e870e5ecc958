package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Selami79/rubber-ds/internal"
	"github.com/Selami79/rubber-ds/internal/auth"
	rawmaterialDatamodel "github.com/Selami79/rubber-ds/internal/core/datamodel/rawmaterial"
	recipeDatamodel "github.com/Selami79/rubber-ds/internal/core/datamodel/recipe"
	"github.com/Selami79/rubber-ds/internal/rawmaterial"
	rawmaterialPostgres "github.com/Selami79/rubber-ds/internal/rawmaterial/postgres"
	"github.com/Selami79/rubber-ds/internal/recipe"
	recipePostgres "github.com/Selami79/rubber-ds/internal/recipe/postgres"
	"github.com/Selami79/rubber-ds/pkg/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample raw materials and a compound recipe for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		gormDB, db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		if err := seed(cmd.Context(), gormDB); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	},
}

func storage(s string) *string { return &s }

var sampleRawMaterials = []rawmaterial.RawMaterialDTO{
	{Code: "NR-SMR20", Name: "Natural rubber SMR 20", Unit: "kg", Quantity: 2500, CriticalQuantity: 500, UnitPrice: 1.85, StorageLocation: storage("A-01")},
	{Code: "SBR-1502", Name: "Styrene butadiene rubber 1502", Unit: "kg", Quantity: 1800, CriticalQuantity: 400, UnitPrice: 1.60, StorageLocation: storage("A-02")},
	{Code: "CB-N330", Name: "Carbon black N330", Unit: "kg", Quantity: 3000, CriticalQuantity: 600, UnitPrice: 1.10, StorageLocation: storage("B-01")},
	{Code: "OIL-ARO", Name: "Aromatic process oil", Unit: "kg", Quantity: 600, CriticalQuantity: 150, UnitPrice: 0.95, StorageLocation: storage("C-01")},
	{Code: "ZNO", Name: "Zinc oxide", Unit: "kg", Quantity: 120, CriticalQuantity: 50, UnitPrice: 2.70, StorageLocation: storage("D-01")},
	{Code: "STA", Name: "Stearic acid", Unit: "kg", Quantity: 80, CriticalQuantity: 40, UnitPrice: 1.30, StorageLocation: storage("D-02")},
	{Code: "S-80", Name: "Sulphur 80%", Unit: "kg", Quantity: 35, CriticalQuantity: 40, UnitPrice: 0.60, StorageLocation: storage("D-03")},
}

// tread compound shares by raw material code
var sampleRecipe = struct {
	Code   string
	Name   string
	Total  float64
	Shares map[string]float64
}{
	Code:  "TRD-100",
	Name:  "Tread compound",
	Total: 250,
	Shares: map[string]float64{
		"NR-SMR20": 35,
		"SBR-1502": 15,
		"CB-N330":  38,
		"OIL-ARO":  7,
		"ZNO":      2.5,
		"STA":      1,
		"S-80":     1.5,
	},
}

func seed(ctx context.Context, db *gorm.DB) error {
	if ctx == nil {
		ctx = context.Background()
	}
	lg := logger.LoggerWrapper()

	if clearData {
		err := db.Transaction(func(tx *gorm.DB) error {
			global := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
			if err := global.Delete(&recipeDatamodel.RecipeComponent{}).Error; err != nil {
				return err
			}
			if err := global.Delete(&recipeDatamodel.Recipe{}).Error; err != nil {
				return err
			}
			return global.Delete(&rawmaterialDatamodel.RawMaterial{}).Error
		})
		if err != nil {
			return fmt.Errorf("clear sample data: %w", err)
		}
		fmt.Println("Cleared recipes and raw materials")
	}

	materials := rawmaterial.NewService(rawmaterialPostgres.NewRawMaterialRepository(db), nil, lg)
	ids := make(map[string]int64, len(sampleRawMaterials))

	existing, err := materials.List(ctx)
	if err != nil {
		return err
	}
	for _, m := range existing {
		ids[m.Code] = m.ID
	}

	for _, dto := range sampleRawMaterials {
		if _, ok := ids[dto.Code]; ok {
			fmt.Println("raw material already exists:", dto.Code)
			continue
		}
		m, err := materials.Create(ctx, dto)
		if err != nil {
			return fmt.Errorf("seed raw material %s: %w", dto.Code, err)
		}
		ids[m.Code] = m.ID
		fmt.Println("Seeded raw material:", m.Code)
	}

	dto := recipe.RecipeDTO{
		Code:          sampleRecipe.Code,
		Name:          sampleRecipe.Name,
		TotalQuantity: sampleRecipe.Total,
		Instructions:  "Masticate NR, add SBR, then carbon black and oil in two passes; add curatives on the final mill.",
	}
	for _, m := range sampleRawMaterials {
		dto.Components = append(dto.Components, recipe.ComponentDTO{
			RawMaterialID: ids[m.Code],
			SharePercent:  sampleRecipe.Shares[m.Code],
		})
	}

	recipes := recipe.NewService(recipePostgres.NewRecipeRepository(db), lg)
	seeder := auth.Identity{Role: auth.RoleAdmin}
	if _, err := recipes.Create(ctx, seeder, dto); err != nil {
		if errors.Is(err, internal.ErrDuplicateCode) {
			fmt.Println("recipe already exists:", dto.Code)
			return nil
		}
		return fmt.Errorf("seed recipe %s: %w", dto.Code, err)
	}
	fmt.Println("Seeded recipe:", dto.Code)
	return nil
}
