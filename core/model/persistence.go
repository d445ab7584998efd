package model

import (
	"encoding/gob"
	"io"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/examscore/pkg/errors"
)

// SaveModel はオブジェクトをgob形式でファイルに保存する
//
// 書き込みは同じディレクトリの一時ファイルに行い、完了後にリネームする。
// 途中で失敗しても既存のファイルは壊れない。親ディレクトリは必要に応じて作成する。
//
// 使用例:
//
//	var reg ensemble.RandomForestRegressor
//	// ... モデルの学習 ...
//	err := model.SaveModel(&reg, "artifacts/model.gob")
func SaveModel(obj interface{}, filename string) (err error) {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filename)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = SaveModelToWriter(obj, tmp); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close file")
	}
	if err = os.Rename(tmp.Name(), filename); err != nil {
		return errors.Wrapf(err, "failed to move model into %s", filename)
	}
	return nil
}

// LoadModel はファイルからオブジェクトを読み込む
//
// obj はポインタでなければならない。インターフェース値を読み込む場合は
// 具象型が gob.Register で登録済みである必要がある。
func LoadModel(obj interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err, "failed to open file")
	}
	defer file.Close()

	return LoadModelFromReader(obj, file)
}

// SaveModelToWriter はオブジェクトをio.Writerに保存する
func SaveModelToWriter(obj interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(obj); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// LoadModelFromReader はio.Readerからオブジェクトを読み込む
func LoadModelFromReader(obj interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(obj); err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	return nil
}
