package store

// 注意：此包只包含实现，接口定义在 core 包。
// 使用 core.Store 接口，通过 Catalog 按名称读写流水线产物。
//
// 示例：
//   var s core.Store = NewFileStore("data/06_models")
//   catalog := NewCatalog(s)
