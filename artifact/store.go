// Package artifact persists pipeline artifacts and locates the artifact root
// used by inference.
//
// Objects are gob encoded (see core/model/persistence.go) and written
// atomically, so a reader never observes a half-written file. Interface
// values such as model.Regressor need their concrete type registered with
// gob, which every model package does in init.
package artifact

import (
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/examscore/core/model"
	"github.com/YuminosukeSato/examscore/pkg/errors"
)

// File names under the artifact root.
const (
	DirName          = "artifacts"
	DataFile         = "data.csv"
	TrainFile        = "train.csv"
	TestFile         = "test.csv"
	PreprocessorFile = "preprocessor.gob"
	ModelFile        = "model.gob"
)

// SaveObject writes obj to path, creating parent directories.
func SaveObject(path string, obj interface{}) error {
	if err := model.SaveModel(obj, path); err != nil {
		return errors.Wrapf(err, "save artifact %s", path)
	}
	return nil
}

// LoadObject decodes path into obj, which must be a pointer. A missing file
// yields an ArtifactNotFoundError naming the path.
func LoadObject(path string, obj interface{}) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return errors.NewArtifactNotFoundError(filepath.Base(path), []string{path})
		}
		return errors.Wrapf(err, "stat artifact %s", path)
	}
	if err := model.LoadModel(obj, path); err != nil {
		return errors.Wrapf(err, "load artifact %s", path)
	}
	return nil
}

// Store resolves artifact file paths under a root directory.
type Store struct {
	Root string
}

// NewStore はルートディレクトリのStoreを作成する
func NewStore(root string) Store {
	return Store{Root: root}
}

// Path はルート配下のファイルパスを返す
func (s Store) Path(name string) string {
	return filepath.Join(s.Root, name)
}

func (s Store) DataPath() string         { return s.Path(DataFile) }
func (s Store) TrainPath() string        { return s.Path(TrainFile) }
func (s Store) TestPath() string         { return s.Path(TestFile) }
func (s Store) PreprocessorPath() string { return s.Path(PreprocessorFile) }
func (s Store) ModelPath() string        { return s.Path(ModelFile) }

// Ensure creates the root directory.
func (s Store) Ensure() error {
	if err := os.MkdirAll(s.Root, 0o755); err != nil {
		return errors.Wrapf(err, "create artifact root %s", s.Root)
	}
	return nil
}

// Has は全てのファイルがルート配下に存在するかを返す
func (s Store) Has(names ...string) bool {
	for _, n := range names {
		info, err := os.Stat(s.Path(n))
		if err != nil || info.IsDir() {
			return false
		}
	}
	return true
}

// Save writes obj under name.
func (s Store) Save(name string, obj interface{}) error {
	return SaveObject(s.Path(name), obj)
}

// Load decodes name into obj.
func (s Store) Load(name string, obj interface{}) error {
	return LoadObject(s.Path(name), obj)
}
