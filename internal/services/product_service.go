package services

import (
	"context"
	"fmt"
	"io"

	"distributor/internal/models"
	"distributor/internal/repository"

	"github.com/xuri/excelize/v2"
)

const stockSheet = "Stock"

type ProductService interface {
	GetCatalog(ctx context.Context) ([]models.Product, error)
	// ExportStock writes the stock table as an xlsx workbook.
	ExportStock(ctx context.Context, w io.Writer) error
}

type productService struct {
	productRepo repository.ProductRepository
}

func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productService{productRepo: productRepo}
}

func (s *productService) GetCatalog(ctx context.Context) ([]models.Product, error) {
	return s.productRepo.GetAll(ctx)
}

func (s *productService) ExportStock(ctx context.Context, w io.Writer) error {
	products, err := s.productRepo.GetAll(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", stockSheet); err != nil {
		return err
	}

	headings := []string{"Product", "Unit Price", "Wholesale Price", "Quantity"}
	for i, h := range headings {
		if err := setCell(f, i+1, 1, h); err != nil {
			return err
		}
	}
	for i, p := range products {
		row := i + 2
		values := []interface{}{
			p.Name,
			p.UnitPrice.InexactFloat64(),
			p.WholesalePrice.InexactFloat64(),
			p.StockQuantity,
		}
		for col, v := range values {
			if err := setCell(f, col+1, row, v); err != nil {
				return err
			}
		}
	}

	return f.Write(w)
}

func setCell(f *excelize.File, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(stockSheet, cell, value); err != nil {
		return fmt.Errorf("write stock cell %s: %w", cell, err)
	}
	return nil
}
