package catalog

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/xenking/order-engine/internal/domain/order"
)

// LoadFile reads a JSON product catalog (optionally gzip-compressed, by file
// extension) and registers every product into the catalog. The file is a
// single JSON array of product objects:
//
//	[{"productId": "...", "name": "...", "productType": "PHYSICAL",
//	  "price": 89.90, "stock": 150, "releaseDate": "2026-11-15",
//	  "preOrderSlots": 500, "licenses": 100, "active": true}, ...]
//
// Products are streamed, not buffered, so large catalogs are fine.
func (m *Memory) LoadFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "open catalog file")
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return 0, errors.Wrap(err, "gzip reader")
		}
		defer gz.Close()
		r = gz
	}

	return m.load(r)
}

func (m *Memory) load(r io.Reader) (int, error) {
	d := jx.Decode(r, 1<<16)

	count := 0
	err := d.Arr(func(d *jx.Decoder) error {
		p, err := decodeProduct(d)
		if err != nil {
			return err
		}
		m.Put(p)
		count++
		return nil
	})
	if err != nil {
		return count, errors.Wrap(err, "decode catalog")
	}
	return count, nil
}

func decodeProduct(d *jx.Decoder) (ProductInfo, error) {
	p := ProductInfo{Active: true}

	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "productId":
			v, err := d.Str()
			p.ProductID = v
			return err
		case "name":
			v, err := d.Str()
			p.Name = v
			return err
		case "productType":
			v, err := d.Str()
			p.ProductType = order.ProductType(v)
			return err
		case "price":
			n, err := d.Num()
			if err != nil {
				return err
			}
			price, err := decimal.NewFromString(strings.Trim(string(n), `"`))
			if err != nil {
				return errors.Wrapf(err, "price for %s", p.ProductID)
			}
			p.Price = price
			return nil
		case "stock":
			return decodeOptInt(d, &p.Stock)
		case "licenses":
			return decodeOptInt(d, &p.Licenses)
		case "preOrderSlots":
			return decodeOptInt(d, &p.PreOrderSlots)
		case "releaseDate":
			if d.Next() == jx.Null {
				return d.Null()
			}
			v, err := d.Str()
			if err != nil {
				return err
			}
			t, err := time.Parse(time.DateOnly, v)
			if err != nil {
				return errors.Wrapf(err, "releaseDate for %s", p.ProductID)
			}
			p.ReleaseDate = &t
			return nil
		case "active":
			v, err := d.Bool()
			p.Active = v
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return p, err
	}
	if p.ProductID == "" {
		return p, errors.New("product without productId")
	}
	return p, nil
}

func decodeOptInt(d *jx.Decoder, dst **int) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	v, err := d.Int()
	if err != nil {
		return err
	}
	*dst = &v
	return nil
}
