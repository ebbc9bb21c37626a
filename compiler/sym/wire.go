package sym

import (
	"github.com/fxamacker/cbor/v2"
	"tlog.app/go/errors"

	"github.com/slowlang/ix/compiler/tp"
)

type (
	// unit is the exported symbol table of a compiled file.
	unit struct {
		Version int        `cbor:"1,keyasint"`
		Funcs   []wireFunc `cbor:"2,keyasint"`
	}

	wireFunc struct {
		Kind  Dispatch `cbor:"1,keyasint"`
		Name  string   `cbor:"2,keyasint"`
		Owner string   `cbor:"3,keyasint"`
		Desc  string   `cbor:"4,keyasint"`
	}
)

const wireVersion = 1

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}

	encMode = em
}

// Marshal encodes the registry so that other units can be compiled against it.
func (r *Registry) Marshal() ([]byte, error) {
	u := unit{Version: wireVersion}

	for _, f := range r.All() {
		u.Funcs = append(u.Funcs, wireFunc{
			Kind:  f.Kind,
			Name:  f.Name,
			Owner: f.Owner,
			Desc:  f.Sig.Descriptor(),
		})
	}

	return encMode.Marshal(u)
}

// Unmarshal decodes Marshal output. Decoded functions are not local.
func Unmarshal(data []byte) (r *Registry, err error) {
	var u unit

	err = cbor.Unmarshal(data, &u)
	if err != nil {
		return nil, errors.Wrap(err, "decode")
	}

	if u.Version != wireVersion {
		return nil, errors.New("unsupported version: %v", u.Version)
	}

	r = NewRegistry()

	for _, w := range u.Funcs {
		sig, err := tp.ParseMethodDescriptor(w.Desc)
		if err != nil {
			return nil, errors.Wrap(err, "func %v", w.Name)
		}

		err = r.Add(Func{
			Kind:  w.Kind,
			Name:  w.Name,
			Owner: w.Owner,
			Sig:   sig,
		})
		if err != nil {
			return nil, err
		}
	}

	return r, nil
}
