package store

import (
	"database/sql"
	"fmt"

	"ventastar/internal/model"
)

// ReplaceStarSchema replaces the warehouse content with one run's output
// inside a single transaction: all three tables or nothing.
func (s *Store) ReplaceStarSchema(schema *model.StarSchema) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Facts first: they reference both dimensions.
	for _, table := range []string{"fact_ventas", "dim_articulos", "dim_sucursales"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := insertArticulos(tx, schema.Articulos); err != nil {
		return err
	}
	if err := insertSucursales(tx, schema.Sucursales); err != nil {
		return err
	}
	if err := insertFacts(tx, schema.Facts); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func insertArticulos(tx *sql.Tx, dims []model.DimArticulo) error {
	stmt, err := tx.Prepare(`
		INSERT INTO dim_articulos (
			articulo, descripcion, ranking, clasificacion_abc,
			venta_neta_total, venta_bruta_total, venta_devolucion_total,
			tasa_devolucion, porcentaje_global, porcentaje_acumulado
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare dim_articulos insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range dims {
		if _, err := stmt.Exec(
			d.Articulo, d.Descripcion, d.Ranking, d.ClasificacionABC,
			d.VentaNetaTotal, d.VentaBrutaTotal, d.VentaDevolucionTotal,
			d.TasaDevolucion, d.PorcentajeGlobal, d.PorcentajeAcumulado,
		); err != nil {
			return fmt.Errorf("failed to insert dim_articulos row %s: %w", d.Articulo, err)
		}
	}
	return nil
}

func insertSucursales(tx *sql.Tx, sucursales []model.DimSucursal) error {
	stmt, err := tx.Prepare(`INSERT INTO dim_sucursales (sucursal, tipo) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare dim_sucursales insert: %w", err)
	}
	defer stmt.Close()

	for _, su := range sucursales {
		if _, err := stmt.Exec(su.Sucursal, su.Tipo); err != nil {
			return fmt.Errorf("failed to insert dim_sucursales row %s: %w", su.Sucursal, err)
		}
	}
	return nil
}

func insertFacts(tx *sql.Tx, facts []model.FactVenta) error {
	stmt, err := tx.Prepare(`
		INSERT INTO fact_ventas (
			articulo, sucursal, venta_neta, venta_bruta, venta_devolucion, cantidad
		) VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare fact_ventas insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range facts {
		if _, err := stmt.Exec(
			f.Articulo, f.Sucursal, f.VentaNeta, f.VentaBruta, f.VentaDevolucion, f.Cantidad,
		); err != nil {
			return fmt.Errorf("failed to insert fact_ventas row %s/%s: %w", f.Articulo, f.Sucursal, err)
		}
	}
	return nil
}
